// Package models defines the persisted and exported data shapes of the vault.
package models

// UserMeta is the singleton vault-metadata record. It exists if and only if
// the vault has been initialized.
//
// MasterHash is a self-describing PHC hash string used only for login
// verification; MasterSalt is an independent base64 salt used only for
// master-key derivation. The three (question, answer hash, answer salt)
// triples back the security-question recovery path: either all three are
// present and complete, or recovery is unavailable.
type UserMeta struct {
	ID          int64  `json:"id"`
	MasterHash  string `json:"master_hash"`
	MasterSalt  string `json:"master_salt"`
	Question1   string `json:"question1,omitempty"`
	Answer1Hash string `json:"answer1_hash,omitempty"`
	AnswerSalt1 string `json:"answer_salt1,omitempty"`
	Question2   string `json:"question2,omitempty"`
	Answer2Hash string `json:"answer2_hash,omitempty"`
	AnswerSalt2 string `json:"answer_salt2,omitempty"`
	Question3   string `json:"question3,omitempty"`
	Answer3Hash string `json:"answer3_hash,omitempty"`
	AnswerSalt3 string `json:"answer_salt3,omitempty"`
}

// HasRecovery reports whether all three recovery triples are complete.
func (u *UserMeta) HasRecovery() bool {
	return u.Question1 != "" && u.Answer1Hash != "" && u.AnswerSalt1 != "" &&
		u.Question2 != "" && u.Answer2Hash != "" && u.AnswerSalt2 != "" &&
		u.Question3 != "" && u.Answer3Hash != "" && u.AnswerSalt3 != ""
}

// Entry is one stored credential. EncryptedPassword and Nonce are base64
// text; the pair is meaningless without the session's master key. Notes are
// plaintext so search can match them.
type Entry struct {
	ID                int64  `json:"id"`
	Software          string `json:"software"`
	Account           string `json:"account"`
	EncryptedPassword string `json:"encrypted_password"`
	Nonce             string `json:"nonce"`
	Notes             string `json:"notes,omitempty"`
}

// ExportData is the inner payload of an export: the vault metadata plus the
// full ordered entry collection. It is also the complete on-disk document of
// the legacy export format.
type ExportData struct {
	UserMeta        UserMeta `json:"user_meta"`
	PasswordEntries []Entry  `json:"password_entries"`
}

// BackupInfo describes an export bundle: format version, UTC creation
// timestamp (RFC3339), and entry count.
type BackupInfo struct {
	Version     string `json:"version"`
	CreatedAt   string `json:"created_at"`
	EntryCount  int    `json:"entry_count"`
	HasUserData bool   `json:"has_user_data"`
}

// ExportBundle is the current wrapped export format. It only ever exists
// transiently, between serialization and envelope encryption on export, or
// between envelope decryption and the atomic replace on import.
type ExportBundle struct {
	BackupInfo BackupInfo `json:"backup_info"`
	Data       ExportData `json:"data"`
}
