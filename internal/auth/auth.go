package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/printshop/internal/auth/config"
	"github.com/iurnickita/printshop/internal/store"
	"github.com/iurnickita/printshop/internal/token"
)

type Auth interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	HeaderOperatorKey   = "X-Operator"
	cookieOperatorToken = "printshopOperatorToken"
	maxLoginLen         = 20
)

var ErrNoToken = errors.New("no token")

type auth struct {
	cfg    config.Config
	store  store.Store
	zaplog *zap.Logger
}

func NewAuth(cfg config.Config, store store.Store, zaplog *zap.Logger) Auth {
	return &auth{cfg: cfg, store: store, zaplog: zaplog}
}

type credentialsJSONRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (credentialsJSONRequest, bool) {
	var creds credentialsJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, false
	}
	if creds.Login == "" || creds.Password == "" || len(creds.Login) > maxLoginLen {
		return creds, false
	}
	return creds, true
}

func (a *auth) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(r)
	if !ok {
		http.Error(w, "login and password required", http.StatusBadRequest)
		return
	}

	operator, err := a.store.AuthRegister(r.Context(), creds.Login, creds.Password)
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	a.zaplog.Info("operator registered", zap.String("operator", operator))
	a.setToken(w, operator)
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(r)
	if !ok {
		http.Error(w, "login and password required", http.StatusBadRequest)
		return
	}

	operator, err := a.store.AuthLogin(r.Context(), creds.Login, creds.Password)
	if err != nil {
		switch err {
		case store.ErrNoRows, store.ErrWrongPassword:
			http.Error(w, "wrong login or password", http.StatusUnauthorized)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	a.setToken(w, operator)
}

func (a *auth) setToken(w http.ResponseWriter, operator string) {
	tokenString, err := token.BuildJWTString(operator, a.cfg.SecretKey, a.cfg.TokenExp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOperatorToken,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.cfg.TokenExp.Seconds()),
	})
	w.Header().Set("Authorization", "Bearer "+tokenString)
	w.WriteHeader(http.StatusOK)
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// получение оператора
		operator, err := a.getOperator(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		// записываем, подменённый клиентом заголовок перезаписывается
		r.Header.Set(HeaderOperatorKey, operator)

		// передаём управление хендлеру
		h.ServeHTTP(w, r)
	}
}

func (a *auth) getOperator(r *http.Request) (string, error) {
	// заголовок Authorization, затем куки
	tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || tokenString == "" {
		tokenCookie, err := r.Cookie(cookieOperatorToken)
		if err != nil {
			return "", ErrNoToken
		}
		tokenString = tokenCookie.Value
	}
	return token.GetOperatorID(tokenString, a.cfg.SecretKey)
}
