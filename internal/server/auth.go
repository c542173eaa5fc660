package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int32  `json:"expiresIn"`
}

// handlePostLogin exchanges credentials for a Cognito ID token, returns it
// and also stores it in an encrypted session cookie. The ID token is used
// because it carries the profile and masjid claims.
func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		s.writeMessage(w, http.StatusBadRequest, "invalid_argument", "email and password are required")
		return
	}

	resp, err := s.cognito.InitiateAuth(r.Context(), &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": req.Password,
		},
	})
	if err != nil {
		var notConfirmed *ctypes.UserNotConfirmedException
		if errors.As(err, &notConfirmed) {
			s.writeMessage(w, http.StatusForbidden, "unconfirmed", "confirm your account before logging in")
			return
		}
		s.logger.WithError(err).Info("login rejected")
		s.writeMessage(w, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.IdToken == nil {
		s.writeMessage(w, http.StatusUnauthorized, "unauthenticated", "login failed")
		return
	}

	token := aws.ToString(resp.AuthenticationResult.IdToken)
	expiresIn := resp.AuthenticationResult.ExpiresIn

	encoded, err := s.cookie.Encode(s.config.CookieName, token)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt session token")
		s.writeMessage(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(expiresIn),
		Path:     "/",
	})

	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresIn: expiresIn})
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}
