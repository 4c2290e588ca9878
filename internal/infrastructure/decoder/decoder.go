package decoder

import (
	"fmt"

	"vision-diagnostics/internal/domain/port"
)

// Имена декодеров в конфигурации.
const (
	NameStd  = "std"
	NameGoCV = "gocv"
)

// New выбирает декодер по имени из конфигурации.
func New(name string) (port.ImageDecoder, error) {
	switch name {
	case "", NameStd:
		return NewStdDecoder(), nil
	case NameGoCV:
		return NewGoCVDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown image decoder %q", name)
	}
}
