package monetization

import "errors"

var ErrInvalidConfig = errors.New("monetization: invalid configuration")
