package messenger

import "errors"

var ErrNoPhone = errors.New("customer has no phone number")
