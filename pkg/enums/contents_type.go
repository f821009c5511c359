package enums

import "fmt"

// ContentsType says whether a stock box holds finished products or raw components.
type ContentsType string

const (
	ContentsTypeProduct   ContentsType = "product"
	ContentsTypeComponent ContentsType = "component"
)

var validContentsTypes = []ContentsType{
	ContentsTypeProduct,
	ContentsTypeComponent,
}

// String implements fmt.Stringer.
func (c ContentsType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContentsType.
func (c ContentsType) IsValid() bool {
	for _, candidate := range validContentsTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContentsType converts raw input into a ContentsType.
func ParseContentsType(value string) (ContentsType, error) {
	for _, candidate := range validContentsTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contents type %q", value)
}
