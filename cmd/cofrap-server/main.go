// Command cofrap-server exposes the authentication engine over HTTP.
//
// Endpoints:
//
//	POST /authenticate-user  JSON {"username":"...", "password":"...", "totp_code":"..."}
//	POST /generate-2fa       JSON {"username":"..."}
//	POST /generate-password  JSON {"username":"..."}
//	GET  /metrics            Prometheus text exposition
//
// Configuration comes from the environment: MFA_KEY_B64 (or a mounted secret
// file), DATABASE_URL, INACTIVITY_LIMIT_DAYS, PORT. Invalid configuration is
// fatal at startup; the process must not serve requests with a bad key.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	credauth "github.com/fathallahma/mspr-manager-projet"
	"github.com/fathallahma/mspr-manager-projet/metrics/export/prometheus"
	"github.com/fathallahma/mspr-manager-projet/pgstore"
	"github.com/fathallahma/mspr-manager-projet/vault"
)

const (
	secretFilePrimary  = "/var/openfaas/secrets/MFA_KEY_B64"
	secretFileFallback = "/var/openfaas/secrets/mfa-key"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

func main() {
	key, err := vault.LoadKey("MFA_KEY_B64", secretFilePrimary, secretFileFallback)
	if err != nil {
		log.Fatalf("mfa key: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := pgstore.Connect(ctx, dsn)
	cancel()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer store.Close()

	cfg := credauth.DefaultConfig()
	if v := os.Getenv("INACTIVITY_LIMIT_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			log.Fatalf("INACTIVITY_LIMIT_DAYS: invalid value %q", v)
		}
		cfg.Expiry.InactivityLimitDays = days
	}
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := credauth.New().
		WithConfig(cfg).
		WithStore(store).
		WithCipherKey(key).
		WithAuditSink(credauth.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		log.Fatalf("engine build: %v", err)
	}
	defer engine.Close()

	exporter := prometheus.NewExporter(engine)

	r := gin.Default()
	r.POST("/authenticate-user", authenticateHandler(engine))
	r.POST("/generate-2fa", enrollHandler(engine))
	r.POST("/generate-password", provisionHandler(engine))
	r.GET("/metrics", gin.WrapH(exporter.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func authenticateHandler(engine *credauth.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Username and password are required",
			})
			return
		}

		result, err := engine.Authenticate(c.Request.Context(), req.Username, req.Password, req.TOTPCode)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
			return
		}

		switch result.Outcome {
		case credauth.OutcomeMissingCredentials:
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Username and password are required",
			})
		case credauth.OutcomeUserNotFound, credauth.OutcomeInvalidCredentials:
			// Indistinguishable responses to avoid username enumeration.
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid username or password",
			})
		case credauth.OutcomeAccountExpired:
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"expired": true,
				"error":   "Account has expired due to inactivity (6 months)",
			})
		case credauth.OutcomeSecondFactorRequired:
			c.JSON(http.StatusBadRequest, gin.H{
				"success":      false,
				"requires_2fa": true,
				"error":        "2FA code is required",
			})
		case credauth.OutcomeInvalidSecondFactor:
			c.JSON(http.StatusUnauthorized, gin.H{
				"success":      false,
				"requires_2fa": true,
				"error":        "Invalid 2FA code",
			})
		case credauth.OutcomeDecryptionFault:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to decrypt 2FA secret",
			})
		case credauth.OutcomeSuccess:
			body := gin.H{
				"success":       true,
				"username":      result.Username,
				"user_id":       result.UserID,
				"has_2fa":       result.HasSecondFactor,
				"last_activity": result.LastActivity.UTC().Format(time.RFC3339),
			}
			if result.Token != "" {
				body["token"] = result.Token
			}
			c.JSON(http.StatusOK, body)
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Internal server error",
			})
		}
	}
}

func enrollHandler(engine *credauth.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usernameRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Username is required",
			})
			return
		}

		result, err := engine.EnrollSecondFactor(c.Request.Context(), req.Username)
		if err != nil {
			switch {
			case errors.Is(err, credauth.ErrUserNotFound):
				c.JSON(http.StatusNotFound, gin.H{
					"success": false,
					"error":   "User not found",
				})
			case errors.Is(err, credauth.ErrSecondFactorExists):
				c.JSON(http.StatusConflict, gin.H{
					"success": false,
					"error":   "2FA is already enabled for this user",
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Internal server error",
				})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"username":   result.Username,
			"mfa_secret": result.Secret,
			"totp_uri":   result.URI,
		})
	}
}

func provisionHandler(engine *credauth.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req usernameRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Username is required",
			})
			return
		}

		result, err := engine.ProvisionAccount(c.Request.Context(), req.Username)
		if err != nil {
			switch {
			case errors.Is(err, credauth.ErrUserExists):
				c.JSON(http.StatusConflict, gin.H{
					"success": false,
					"error":   "User already exists",
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Internal server error",
				})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"username": result.Username,
			"user_id":  result.UserID,
			"password": result.Password,
		})
	}
}
