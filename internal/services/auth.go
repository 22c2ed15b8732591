package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pwdbox/pwdbox/internal/common"
	"github.com/pwdbox/pwdbox/internal/cryptox"
	"github.com/pwdbox/pwdbox/internal/logging"
	"github.com/pwdbox/pwdbox/internal/models"
	"github.com/pwdbox/pwdbox/internal/repositories/usermeta"
)

// SetupRequest initializes the vault: a master password plus exactly three
// security question/answer pairs for the recovery path.
type SetupRequest struct {
	MasterPassword string `json:"master_password"`
	Question1      string `json:"question1"`
	Answer1        string `json:"answer1"`
	Question2      string `json:"question2"`
	Answer2        string `json:"answer2"`
	Question3      string `json:"question3"`
	Answer3        string `json:"answer3"`
}

// LoginRequest authenticates against the stored master-password hash.
type LoginRequest struct {
	MasterPassword string `json:"master_password"`
}

// RecoveryRequest carries the three security-question answers.
type RecoveryRequest struct {
	Answer1 string `json:"answer1"`
	Answer2 string `json:"answer2"`
	Answer3 string `json:"answer3"`
}

// ResetPasswordRequest rotates the master password via the recovery path.
type ResetPasswordRequest struct {
	NewMasterPassword string `json:"new_master_password"`
	Answer1           string `json:"answer1"`
	Answer2           string `json:"answer2"`
	Answer3           string `json:"answer3"`
}

// AuthResponse is the outcome of setup, login, reset, and change. MasterKey
// is the base64 of the 32-byte derived key; it is present only on success
// and is never persisted anywhere by this package.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MasterKey string `json:"master_key,omitempty"`
}

// AuthService owns the "is the vault initialized" invariant and every state
// transition around the master password.
//
// Expected negative outcomes (wrong password, wrong answers, already set up)
// are unsuccessful responses; errors are reserved for storage and internal
// failures.
type AuthService interface {
	IsInitialized(ctx context.Context) (bool, error)
	Setup(ctx context.Context, req SetupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	SecurityQuestions(ctx context.Context) ([]string, error)
	VerifyRecoveryAnswers(ctx context.Context, req RecoveryRequest) (bool, error)
	ResetMasterPassword(ctx context.Context, req ResetPasswordRequest) (*AuthResponse, error)
	ChangeMasterPassword(ctx context.Context, currentPassword, newPassword string) (*AuthResponse, error)
}

type authService struct {
	db  *sql.DB
	mu  *sync.Mutex
	log logging.Logger
}

// NewAuthService constructs an AuthService over the given database. The
// mutex is the vault-wide single-writer guard shared with the other services.
func NewAuthService(db *sql.DB, mu *sync.Mutex, log logging.Logger) AuthService {
	return &authService{db: db, mu: mu, log: log}
}

func (s *authService) getMetaRepo() usermeta.Repository {
	return usermeta.NewSQLiteRepository(s.db)
}

func (s *authService) IsInitialized(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetaRepo().Exists(ctx)
}

// Setup initializes the vault. The master password and each of the three
// answers get independent salts and hashes, so a compromised answer hash
// cannot be used to guess another. Setup doubles as first login: the derived
// master key is returned for immediate use.
func (s *authService) Setup(ctx context.Context, req SetupRequest) (*AuthResponse, error) {
	if err := validateSetup(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaRepo := s.getMetaRepo()

	exists, err := metaRepo.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return &AuthResponse{Success: false, Message: "Vault is already set up"}, nil
	}

	masterSalt := cryptox.GenerateSalt()
	masterHash, err := cryptox.HashPassword(req.MasterPassword, masterSalt)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	meta := &models.UserMeta{
		MasterHash: masterHash,
		MasterSalt: masterSalt,
		Question1:  req.Question1,
		Question2:  req.Question2,
		Question3:  req.Question3,
	}

	// Independent salt and hash per answer.
	for _, a := range []struct {
		answer string
		hash   *string
		salt   *string
	}{
		{req.Answer1, &meta.Answer1Hash, &meta.AnswerSalt1},
		{req.Answer2, &meta.Answer2Hash, &meta.AnswerSalt2},
		{req.Answer3, &meta.Answer3Hash, &meta.AnswerSalt3},
	} {
		salt := cryptox.GenerateSalt()
		hash, err := cryptox.HashPassword(a.answer, salt)
		if err != nil {
			return nil, common.ErrorCryptoFailure
		}
		*a.salt = salt
		*a.hash = hash
	}

	if err := metaRepo.Save(ctx, meta); err != nil {
		return nil, err
	}

	key, err := cryptox.DeriveKey(req.MasterPassword, masterSalt)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	defer cryptox.Wipe(key)

	s.log.Info(ctx, "vault initialized")
	return &AuthResponse{
		Success:   true,
		Message:   "Vault setup completed successfully",
		MasterKey: encodeMasterKey(key),
	}, nil
}

// Login verifies the password against the stored hash and, on success,
// derives the master key from the stored master salt, so repeated logins
// with the correct password always yield the same key.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx, req.MasterPassword)
}

// login is Login without the lock, for reuse by ChangeMasterPassword.
func (s *authService) login(ctx context.Context, masterPassword string) (*AuthResponse, error) {
	meta, err := s.getMetaRepo().Get(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, common.ErrorNotInitialized
	}

	ok, err := cryptox.VerifyPassword(masterPassword, meta.MasterHash)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	if !ok {
		return &AuthResponse{Success: false, Message: "Invalid master password"}, nil
	}

	key, err := cryptox.DeriveKey(masterPassword, meta.MasterSalt)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	defer cryptox.Wipe(key)

	return &AuthResponse{
		Success:   true,
		Message:   "Login successful",
		MasterKey: encodeMasterKey(key),
	}, nil
}

// SecurityQuestions returns exactly the three question texts. Fewer than
// three present means an inconsistent setup and is an error.
func (s *authService) SecurityQuestions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.getMetaRepo().Get(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, common.ErrorNotInitialized
	}

	questions := make([]string, 0, 3)
	for _, q := range []string{meta.Question1, meta.Question2, meta.Question3} {
		if q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) != 3 {
		return nil, fmt.Errorf("%w: incomplete security questions setup", common.ErrorInternal)
	}
	return questions, nil
}

func (s *authService) VerifyRecoveryAnswers(ctx context.Context, req RecoveryRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyRecoveryAnswers(ctx, req)
}

// verifyRecoveryAnswers checks all three answers without short-circuiting:
// every hash is always verified so the call's shape does not reveal which
// answer was wrong. Exact timing safety is bounded by the underlying verify
// primitive.
func (s *authService) verifyRecoveryAnswers(ctx context.Context, req RecoveryRequest) (bool, error) {
	meta, err := s.getMetaRepo().Get(ctx)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, common.ErrorNotInitialized
	}
	if !meta.HasRecovery() {
		return false, nil
	}

	ok1, err1 := cryptox.VerifyPassword(req.Answer1, meta.Answer1Hash)
	ok2, err2 := cryptox.VerifyPassword(req.Answer2, meta.Answer2Hash)
	ok3, err3 := cryptox.VerifyPassword(req.Answer3, meta.Answer3Hash)
	if err1 != nil || err2 != nil || err3 != nil {
		return false, common.ErrorCryptoFailure
	}
	return ok1 && ok2 && ok3, nil
}

// ResetMasterPassword rotates the master password after recovery
// verification. A new master salt is generated, so every entry encrypted
// under the old derived key becomes unreadable until the caller runs the
// vault-wide re-encryption with the old and new keys.
func (s *authService) ResetMasterPassword(ctx context.Context, req ResetPasswordRequest) (*AuthResponse, error) {
	if req.NewMasterPassword == "" {
		return nil, fmt.Errorf("%w: new master password is required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.verifyRecoveryAnswers(ctx, RecoveryRequest{
		Answer1: req.Answer1, Answer2: req.Answer2, Answer3: req.Answer3,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return &AuthResponse{Success: false, Message: "Invalid security answers"}, nil
	}

	return s.rotateMasterPassword(ctx, req.NewMasterPassword, "Master password reset successfully")
}

// ChangeMasterPassword rotates the master password after re-authenticating
// with the current one. The same re-encryption obligation as reset applies.
func (s *authService) ChangeMasterPassword(ctx context.Context, currentPassword, newPassword string) (*AuthResponse, error) {
	if newPassword == "" {
		return nil, fmt.Errorf("%w: new master password is required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	auth, err := s.login(ctx, currentPassword)
	if err != nil {
		return nil, err
	}
	if !auth.Success {
		return &AuthResponse{Success: false, Message: "Current password is incorrect"}, nil
	}

	return s.rotateMasterPassword(ctx, newPassword, "Master password changed successfully")
}

// rotateMasterPassword generates a fresh salt and hash for the new password,
// persists them, and derives the new key. Callers hold the lock.
func (s *authService) rotateMasterPassword(ctx context.Context, newPassword, message string) (*AuthResponse, error) {
	metaRepo := s.getMetaRepo()

	meta, err := metaRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, common.ErrorNotInitialized
	}

	newSalt := cryptox.GenerateSalt()
	newHash, err := cryptox.HashPassword(newPassword, newSalt)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}

	meta.MasterHash = newHash
	meta.MasterSalt = newSalt
	if err := metaRepo.Save(ctx, meta); err != nil {
		return nil, err
	}

	key, err := cryptox.DeriveKey(newPassword, newSalt)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	defer cryptox.Wipe(key)

	s.log.Info(ctx, "master password rotated")
	return &AuthResponse{
		Success:   true,
		Message:   message,
		MasterKey: encodeMasterKey(key),
	}, nil
}

func validateSetup(req SetupRequest) error {
	if req.MasterPassword == "" {
		return fmt.Errorf("%w: master password is required", common.ErrorValidation)
	}
	for _, f := range []string{
		req.Question1, req.Answer1,
		req.Question2, req.Answer2,
		req.Question3, req.Answer3,
	} {
		if f == "" {
			return fmt.Errorf("%w: three security questions with answers are required", common.ErrorValidation)
		}
	}
	return nil
}
