package sensortag

const KeysFrameLen = 1

// KeyState is the decoded simple key frame.
type KeyState struct {
	User  bool // left button
	Power bool // right button
	Reed  bool // reed relay (magnet)
}

// KeysSensor has no config characteristic, so Enable and Disable only
// track state.
type KeysSensor struct {
	handle
}

func NewKeys(service GATTService) *KeysSensor {
	return &KeysSensor{handle: newHandle(SimpleKeyService, service)}
}

func DecodeKeys(raw []byte) (KeyState, error) {
	if err := requireLen(raw, KeysFrameLen, "keys"); err != nil {
		return KeyState{}, err
	}
	b := raw[0]
	return KeyState{
		User:  b&0x01 != 0,
		Power: b&0x02 != 0,
		Reed:  b&0x04 != 0,
	}, nil
}
