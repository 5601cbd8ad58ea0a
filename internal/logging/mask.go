package logging

// MaskSecret reduces a credential to a short recognizable hint so startup
// logs can confirm which token is in effect without ever writing it out.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-2:]
}
