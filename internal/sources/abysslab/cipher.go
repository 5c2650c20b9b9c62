package abysslab

// The site ships its statistics payload through a single-character
// substitution cipher: every character of the serialized JSON is swapped for
// its counterpart in a fixed 70-character alphabet covering the full JSON
// charset. The mapping below was recovered by lining up a known payload
// against its obfuscated form; it has been stable across site deployments.
const (
	plainAlphabet  = `0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ{}[]:,"-`
	cipherAlphabet = `-",:][}{ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlkjihgfedcba9876543210`
)

var (
	decodeTable [256]byte
	encodeTable [256]byte
)

func init() {
	for i := range decodeTable {
		decodeTable[i] = byte(i)
		encodeTable[i] = byte(i)
	}
	for i := 0; i < len(plainAlphabet); i++ {
		decodeTable[cipherAlphabet[i]] = plainAlphabet[i]
		encodeTable[plainAlphabet[i]] = cipherAlphabet[i]
	}
}

// Decode reverses the substitution cipher. Characters outside the alphabet
// (whitespace, multi-byte runes inside string values) pass through
// unchanged.
func Decode(obfuscated string) string {
	out := make([]byte, len(obfuscated))
	for i := 0; i < len(obfuscated); i++ {
		out[i] = decodeTable[obfuscated[i]]
	}
	return string(out)
}

// Encode applies the substitution cipher. The extractor never encodes;
// tests use it to build fixtures.
func Encode(plain string) string {
	out := make([]byte, len(plain))
	for i := 0; i < len(plain); i++ {
		out[i] = encodeTable[plain[i]]
	}
	return string(out)
}
