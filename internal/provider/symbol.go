package provider

import "strings"

// SplitSymbol splits an exchange-qualified symbol such as "600000.SH" into
// its code and upper-cased exchange suffix. ok is false for unqualified input.
func SplitSymbol(symbol string) (code, exchange string, ok bool) {
	s := strings.TrimSpace(symbol)
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return s, "", false
	}
	exchange = strings.ToUpper(s[i+1:])
	if exchange == "SS" {
		exchange = "SH"
	}
	return s[:i], exchange, true
}

// InferExchange guesses the exchange of a bare six-digit A-share code.
func InferExchange(code string) string {
	if code == "" {
		return ""
	}
	switch code[0] {
	case '6', '9', '5':
		return "SH"
	case '4', '8':
		return "BJ"
	default:
		return "SZ"
	}
}

// Exchange returns the exchange of symbol, inferring it for bare codes.
func Exchange(symbol string) (code, exchange string) {
	code, exchange, ok := SplitSymbol(symbol)
	if !ok {
		exchange = InferExchange(code)
	}
	return code, exchange
}
