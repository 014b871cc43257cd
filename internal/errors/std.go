package errors

import stderrors "errors"

// NewStd creates a plain error, like the standard errors.New
func NewStd(text string) error {
	return stderrors.New(text)
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

// IsCategory reports whether any error in err's chain has the category.
func IsCategory(err error, category ErrorCategory) bool {
	for err != nil {
		if c, ok := err.(CategorizedError); ok && c.ErrorCategory() == category {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if IsCategory(e, category) {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return false
}

// IsNotFound checks if an error is categorized as not found.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
