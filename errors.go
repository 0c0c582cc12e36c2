package govisa

import "errors"

// 仪器驱动层的标准错误
var (
	ErrNoInstrument   = errors.New("visa: no instrument found")
	ErrNotInitialized = errors.New("visa: device is not initialized")
	ErrInvalidChannel = errors.New("visa: invalid channel: must be CH1, CH2 or CH3")
	ErrInvalidVoltage = errors.New("visa: invalid voltage request: must be 0-30 V for CH1 & 2, and 0-5 V for CH3")
	ErrInvalidCurrent = errors.New("visa: invalid current request: must be 0-3 A")
	ErrWriteFailed    = errors.New("visa: write operation failed")
	ErrReadFailed     = errors.New("visa: read operation failed")
	ErrQueryFailed    = errors.New("visa: query operation failed")
)
