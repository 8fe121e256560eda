package contract

// The opcodes a dMint contract's locking script prologue is built from.
// Values match the reference script's opcode table; this package never
// interprets anything past the prologue, treating the template tail as
// opaque bytes matched verbatim.
const (
	opPushInputRefSingleton byte = 0xd0
	opPushInputRef          byte = 0xd1
	opReturn                byte = 0x6a
)

// templateTailV1 and templateTailV2 are the fixed bytecode suffixes a
// contract script must end with, after its prologue pushes, for the parser
// to recognize it as a dMint contract of that layout version. The actual
// byte sequences are deployment-specific opaque templates (§ scope:
// "the detailed bytecode of the on-chain script... is out of scope"); the
// parser only needs to recognize membership, not interpret them.
var (
	templateTailV1 = []byte{0xc4, 0x9c, 0x69, 0x88, 0xac}
	templateTailV2 = []byte{0xc4, 0x9c, 0x02, 0x69, 0x88, 0xac}
)

// msgMarker is the literal ASCII bytes a message sibling output's first
// push must equal.
var msgMarker = []byte("msg")

const maxMessageBytes = 80
