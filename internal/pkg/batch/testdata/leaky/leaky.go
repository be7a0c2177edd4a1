package leaky

type Sink interface {
	Put(v string)
}

func getSecret() string {
	return "s3cr3t"
}

func Returned() string {
	return getSecret()
}

func Passed(s Sink) {
	s.Put(getSecret())
}

func Cleaned(s Sink) {
	x := getSecret()
	x = ""
	s.Put(x)
}

func Closure() func() string {
	return func() string {
		return getSecret()
	}
}

func Keep[T any](v T) T {
	return v
}

func Kept() string {
	return Keep("public")
}

func Suppressed(s Sink) {
	s.Put(getSecret()) // secretflow:ignore
}

func PartlySuppressed(s Sink) string {
	// secretflow:ignore
	s.Put(getSecret())
	return getSecret()
}
