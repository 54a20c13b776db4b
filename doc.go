// Package monetize implements the entitlement and monetization-gating engine
// for the Scribblepad note-taking app.
//
// The engine decides, on device, what the current user may do: which features
// are available, how much of a capped quota remains this month, whether the
// free trial can start, and whether an ad may be shown right now. It never
// talks to a payment provider; purchases and restores are reported to it by
// the platform billing collaborator.
//
// Layout:
//
//   - pkg/tier holds the static tier limit table and the feature catalog.
//   - pkg/entitlement is the persisted user entitlement record with its
//     derived subscription/trial state machine and monthly usage counters.
//   - pkg/adfreq is the ad frequency controller with per-placement daily
//     caps and minimum intervals.
//   - pkg/gate is the pure decision engine combining tier, state and usage
//     into a structured verdict.
//   - pkg/analytics defines the monetization event stream.
//   - svc/monetization wires it all together: the stateful service, its
//     configuration and the local HTTP bridge for the app shell.
//
// Basic usage:
//
//	cfg, err := monetization.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc, err := monetization.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if d := svc.Evaluate(ctx, tier.FeatureVoiceNotes); !d.Allowed() {
//		// render the upgrade prompt built from d
//	}
package monetize
