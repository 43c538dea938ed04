package repository

import "errors"

var ErrCacheMiss = errors.New("локальный кэш пуст")
var ErrCorruptSnapshot = errors.New("снимок кэша повреждён")
