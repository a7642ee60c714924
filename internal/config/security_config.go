package config

type SecurityConfig interface {
	GetMaxBodyLength() int
	GetMaxStringLength() int
}

type Security struct {
	src *source
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxBodyLength() int {
	return s.src.getInt("MAX_BODY_LENGTH", 512)
}

func (s Security) GetMaxStringLength() int {
	return s.src.getInt("MAX_STRING_LENGTH", 512)
}
