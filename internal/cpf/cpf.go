// Package cpf validates Brazilian CPF numbers (the national taxpayer ID).
// Validation is pure: no I/O, no side effects.
package cpf

// ResultCode classifies the outcome of a validation attempt.
type ResultCode string

const (
	Valid                   ResultCode = "VALID"
	Not11Digits             ResultCode = "NOT_11_DIGITS"
	InvalidFirstCheckDigit  ResultCode = "INVALID_FIRST_CHECK_DIGIT"
	InvalidSecondCheckDigit ResultCode = "INVALID_SECOND_CHECK_DIGIT"
)

// Result is the validation verdict. Normalized carries the 11-digit form only
// when Code is Valid.
type Result struct {
	Code       ResultCode
	Normalized string
}

// Validate strips formatting from raw and checks both CPF check digits.
// Accepts formatted input like "111.444.777-35".
func Validate(raw string) Result {
	digits := make([]int, 0, 11)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return Result{Code: Not11Digits}
	}

	if checkDigit(digits, 10) != digits[9] {
		return Result{Code: InvalidFirstCheckDigit}
	}
	if checkDigit(digits, 11) != digits[10] {
		return Result{Code: InvalidSecondCheckDigit}
	}

	normalized := make([]byte, 11)
	for i, d := range digits {
		normalized[i] = byte('0' + d)
	}
	return Result{Code: Valid, Normalized: string(normalized)}
}

// checkDigit computes a CPF check digit with descending weights starting at
// firstWeight (10 for the first digit, 11 for the second).
func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, w := 0, firstWeight; w >= 2; i, w = i+1, w-1 {
		sum += digits[i] * w
	}
	if mod := sum % 11; mod >= 2 {
		return 11 - mod
	}
	return 0
}
