package otp

// AllowList decides which numbers are eligible for real SMS delivery.
type AllowList struct {
	all     bool
	numbers map[string]struct{}
}

// NewAllowList builds a list from numbers. The entry "*" allows every number;
// an empty list allows none.
func NewAllowList(numbers []string) AllowList {
	l := AllowList{numbers: make(map[string]struct{}, len(numbers))}
	for _, n := range numbers {
		if n == "*" {
			l.all = true
			continue
		}
		l.numbers[n] = struct{}{}
	}
	return l
}

func (l AllowList) Allows(phoneNumber string) bool {
	if l.all {
		return true
	}
	_, ok := l.numbers[phoneNumber]
	return ok
}
