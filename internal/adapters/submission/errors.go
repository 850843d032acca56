package submission

import "errors"

// Sentinel error kinds for submission gatekeeping.
var (
	ErrNoSubmissionsDir    = errors.New("submissions directory not found")
	ErrNoSubmission        = errors.New("no encrypted (.enc) submission found")
	ErrMultipleSubmissions = errors.New("only one .enc submission is allowed per update")
	ErrMissingActor        = errors.New("actor identity not set")
	ErrTeamMismatch        = errors.New("team name must match the submitting actor")
	ErrMissingMetadata     = errors.New("metadata.json is required")
	ErrInvalidMetadata     = errors.New("invalid metadata.json")
	ErrMissingKey          = errors.New("decryption key not set")
	ErrInvalidKey          = errors.New("decryption key must be 32 bytes of base64")
	ErrDecrypt             = errors.New("decryption failed")
)

// kind names an error for metrics labels.
func kind(err error) string {
	for _, k := range []struct {
		err  error
		name string
	}{
		{ErrNoSubmissionsDir, "no_dir"},
		{ErrNoSubmission, "none"},
		{ErrMultipleSubmissions, "multiple"},
		{ErrMissingActor, "no_actor"},
		{ErrTeamMismatch, "team_mismatch"},
		{ErrMissingMetadata, "no_metadata"},
		{ErrInvalidMetadata, "bad_metadata"},
		{ErrMissingKey, "no_key"},
		{ErrInvalidKey, "bad_key"},
		{ErrDecrypt, "decrypt"},
	} {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}
