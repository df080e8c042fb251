package services

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/config"
)

func (suite *ServiceTestSuite) tokenService() *TokenService {
	tokens := NewTokenService(config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	tokens.now = suite.clock()
	return tokens
}

func (suite *ServiceTestSuite) setPassword(username, password string) {
	hashed, err := HashPassword(password)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.Table("users").Where("username = ?", username).Update("password_hash", hashed).Error)
}

func (suite *ServiceTestSuite) TestTokenLifecycle() {
	tokens := suite.tokenService()

	access, err := tokens.IssueAccess(suite.emp1.ID)
	suite.Require().NoError(err)
	claims, err := tokens.ParseAccess(access)
	suite.Require().NoError(err)
	suite.Equal(suite.emp1.ID, claims.UserID)

	_, err = tokens.ParseRefresh(access)
	suite.ErrorIs(err, ErrInvalidToken)
	_, err = tokens.ParseAccess("garbage")
	suite.ErrorIs(err, ErrInvalidToken)

	suite.now = suite.now.Add(2 * time.Hour)
	_, err = tokens.ParseAccess(access)
	suite.ErrorIs(err, ErrTokenExpired)

	other := NewTokenService(config.JWTConfig{Secret: "other", AccessTTL: time.Hour, RefreshTTL: time.Hour})
	other.now = suite.clock()
	forged, err := other.IssueAccess(suite.emp1.ID)
	suite.Require().NoError(err)
	_, err = tokens.ParseAccess(forged)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *ServiceTestSuite) TestLoginRefreshAndAuthenticate() {
	suite.setPassword("emp1", "password123")
	auth := NewAuthService(suite.repos.Users, suite.tokenService())

	_, err := auth.Login(LoginInput{Username: "emp1", Password: "wrong-password"})
	suite.ErrorIs(err, ErrInvalidCredentials)
	_, err = auth.Login(LoginInput{Username: "nobody", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	pair, err := auth.Login(LoginInput{Username: "emp1", Password: "password123"})
	suite.Require().NoError(err)
	suite.NotEmpty(pair.Access)
	suite.NotEmpty(pair.RefreshJTI)

	user, err := auth.Authenticate(pair.Access)
	suite.Require().NoError(err)
	suite.Equal(suite.emp1.ID, user.ID)
	suite.Require().NotNil(user.Department)

	_, err = auth.Refresh(pair.Refresh, "stale-jti")
	suite.ErrorIs(err, ErrInvalidToken)

	rotated, err := auth.Refresh(pair.Refresh, pair.RefreshJTI)
	suite.Require().NoError(err)
	suite.NotEqual(pair.RefreshJTI, rotated.RefreshJTI)

	suite.Require().NoError(suite.db.Table("users").Where("id = ?", suite.emp1.ID).Update("is_active", false).Error)
	_, err = auth.Authenticate(pair.Access)
	suite.ErrorIs(err, ErrUserInactive)
	_, err = auth.Login(LoginInput{Username: "emp1", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}
