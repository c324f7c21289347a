// Package server exposes the banking ledger over a JSON HTTP API: signup and
// login, the balance-mutating operations, and transaction history.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gurrammuni/jithu-bank/internal/auth"
	"github.com/gurrammuni/jithu-bank/internal/ledger"
	"github.com/gurrammuni/jithu-bank/internal/models"
)

type Server struct {
	ledger *ledger.Ledger
	auth   *auth.Auth
}

func New(l *ledger.Ledger, a *auth.Auth) *Server {
	return &Server{ledger: l, auth: a}
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
	IsAdmin  bool            `json:"is_admin"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

func toAccountResponse(acct models.Account) accountResponse {
	return accountResponse{
		ID:       acct.ID,
		Username: acct.Username,
		Balance:  acct.Balance,
		IsAdmin:  acct.IsAdmin,
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		RespondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := s.auth.HashCredential(req.Password)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "failed to hash credential")
		return
	}

	acct, err := s.ledger.CreateAccount(r.Context(), req.Username, hash)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	JSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := s.ledger.AccountByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckCredential(acct.CredentialHash, req.Password) {
		RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.GenerateToken(acct.ID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	acct, err := s.ledger.AccountByID(r.Context(), accountID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	JSON(w, http.StatusOK, toAccountResponse(acct))
}

func (s *Server) DepositHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondLedgerError(w, ledger.ErrInvalidAmount)
		return
	}

	acct, err := s.ledger.Deposit(r.Context(), accountID, amount)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	JSON(w, http.StatusOK, balanceResponse{Balance: acct.Balance})
}

func (s *Server) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Amount string `json:"amount"`
		Pin    string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondLedgerError(w, ledger.ErrInsufficientFunds)
		return
	}

	acct, err := s.ledger.Withdraw(r.Context(), accountID, amount, req.Pin)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	JSON(w, http.StatusOK, balanceResponse{Balance: acct.Balance})
}

func (s *Server) TransferHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		ToUsername string `json:"to_username"`
		Amount     string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondLedgerError(w, ledger.ErrInvalidAmount)
		return
	}

	acct, err := s.ledger.Transfer(r.Context(), accountID, req.ToUsername, amount)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	JSON(w, http.StatusOK, balanceResponse{Balance: acct.Balance})
}

func (s *Server) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	txns, err := s.ledger.ListTransactions(r.Context(), accountID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	if txns == nil {
		txns = []models.Transaction{}
	}
	JSON(w, http.StatusOK, txns)
}
