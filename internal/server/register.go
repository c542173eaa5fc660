package server

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type registerRequest struct {
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type registerResponse struct {
	Error       string            `json:"error,omitempty"`
	Message     string            `json:"message,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// handlePostRegister signs an applicant up with Cognito. The account is
// usable once the emailed code is confirmed.
func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.GivenName = strings.TrimSpace(req.GivenName)
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if fieldErrs := validateRegisterInput(req); len(fieldErrs) > 0 {
		s.writeJSON(w, http.StatusBadRequest, registerResponse{
			Error:       "invalid_argument",
			Message:     "Please fix the highlighted fields.",
			FieldErrors: fieldErrs,
		})
		return
	}

	attrs := []ctypes.AttributeType{
		{Name: aws.String("email"), Value: aws.String(req.Email)},
		{Name: aws.String("given_name"), Value: aws.String(req.GivenName)},
		{Name: aws.String("family_name"), Value: aws.String(req.FamilyName)},
	}
	if req.Phone != "" {
		attrs = append(attrs, ctypes.AttributeType{Name: aws.String("phone_number"), Value: aws.String(req.Phone)})
	}

	_, err := s.cognito.SignUp(r.Context(), &cognitoidentityprovider.SignUpInput{
		ClientId:       aws.String(s.config.CognitoClientID),
		Username:       aws.String(req.Email),
		Password:       aws.String(req.Password),
		UserAttributes: attrs,
	})
	if err != nil {
		status, message, fieldErrs := s.mapCognitoSignUpError(err)
		s.writeJSON(w, status, registerResponse{Error: "invalid_argument", Message: message, FieldErrors: fieldErrs})
		return
	}

	s.writeJSON(w, http.StatusAccepted, registerResponse{Message: "Check your email for a confirmation code."})
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	_, err := s.cognito.ConfirmSignUp(r.Context(), &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(s.config.CognitoClientID),
		Username:         aws.String(strings.TrimSpace(req.Email)),
		ConfirmationCode: aws.String(strings.TrimSpace(req.Code)),
	})
	if err != nil {
		var codeMismatch *ctypes.CodeMismatchException
		if errors.As(err, &codeMismatch) {
			s.writeMessage(w, http.StatusBadRequest, "invalid_argument", "Invalid confirmation code.")
			return
		}
		s.logger.WithError(err).Error("failed to confirm user signup")
		s.writeMessage(w, http.StatusBadGateway, "internal", "Unable to confirm account. Please try again.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func validateRegisterInput(req registerRequest) map[string]string {
	errs := map[string]string{}

	if req.GivenName == "" {
		errs["givenName"] = "First name is required."
	}

	if req.FamilyName == "" {
		errs["familyName"] = "Last name is required."
	}

	if req.Email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if req.Password != req.ConfirmPassword {
		errs["confirmPassword"] = "Passwords do not match."
	}

	pw := req.Password
	if len(pw) < 12 || !hasUpperReg.MatchString(pw) || !hasLowerReg.MatchString(pw) ||
		!hasDigitReg.MatchString(pw) || !hasSymbolReg.MatchString(pw) {
		errs["password"] = "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol."
	}

	return errs
}

func (s *Service) mapCognitoSignUpError(err error) (int, string, map[string]string) {
	fieldErrs := map[string]string{}

	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		fieldErrs["password"] = "Password must include uppercase, lowercase, number, and symbol (min 12)."
		return http.StatusBadRequest, "Please fix the highlighted fields.", fieldErrs
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		fieldErrs["email"] = "An account with this email already exists."
		return http.StatusConflict, "Try logging in instead.", fieldErrs
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return http.StatusBadRequest, "Some details are invalid. Please review and try again.", fieldErrs
	}

	s.logger.WithError(err).Error("unhandled cognito signup error")

	return http.StatusBadGateway, "Unable to create account right now. Please try again.", fieldErrs
}
