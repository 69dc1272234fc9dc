package queue

import "errors"

// ErrClosed reports intake on a closed queue.
var ErrClosed = errors.New("queue closed")
