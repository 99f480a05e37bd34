package errs

var (
	ErrKeyAlreadyExists = AlreadyExists("keypair already initialized; request rotation explicitly")
	ErrKeyNotFound      = NotFound("keypair not initialized for user")
	ErrMessageNotFound  = NotFound("message not found")
	ErrSelfMessage      = InvalidArg("sender and receiver must differ")
	ErrMissingCrypto    = InvalidArg("envelope is missing required encryption fields")
	ErrNotParticipant   = Forbidden("requester is not a participant of this message")
	ErrInvalidToken     = Unauthenticated("invalid or missing token")

	// ErrAuthenticationFailed signals an AEAD tag mismatch or a wrapped-key
	// unwrap failure: tampered ciphertext or the wrong private key. Retrying
	// cannot repair either condition.
	ErrAuthenticationFailed = New(CodeAuthenticationFailed, "message authentication failed")

	// ErrIntegrityMismatch signals that decryption succeeded but the
	// plaintext does not hash to the recorded content hash.
	ErrIntegrityMismatch = New(CodeIntegrityMismatch, "decrypted content does not match recorded hash")
)
