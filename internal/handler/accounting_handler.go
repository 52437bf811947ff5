package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/adelangokeh992-cell/erp-pro/internal/middleware"
	"github.com/adelangokeh992-cell/erp-pro/internal/model"
	"github.com/adelangokeh992-cell/erp-pro/pkg/database"
	"github.com/adelangokeh992-cell/erp-pro/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListAccounts returns the tenant's chart of accounts
func ListAccounts(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if accountType := c.QueryParam("type"); accountType != "" {
		query = query.Where("type = ?", accountType)
	}

	var accounts []model.Account
	if err := query.Order("code").Find(&accounts).Error; err != nil {
		log.Error("Failed to list accounts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve accounts"})
	}

	return c.JSON(http.StatusOK, accounts)
}

// CreateAccount adds an account to the tenant's chart of accounts
func CreateAccount(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var account model.Account
	if err := c.Bind(&account); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if account.Name == "" || account.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code are required"})
	}
	switch account.Type {
	case "asset", "liability", "equity", "revenue", "expense":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account type"})
	}

	var count int64
	db.Model(&model.Account{}).Where("tenant_id = ? AND code = ?", tid, account.Code).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account code already exists"})
	}

	account.ID = ""
	account.TenantID = tid
	account.IsActive = true
	if err := db.Create(&account).Error; err != nil {
		log.Error("Failed to create account", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account creation failed"})
	}

	log.Info("Account created", zap.String("account_id", account.ID), zap.String("code", account.Code))
	return c.JSON(http.StatusCreated, account)
}

// UpdateAccount applies a partial update to an account
func UpdateAccount(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var account model.Account
	if err := db.Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load account"})
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	for _, k := range []string{"id", "tenant_id", "created_at", "updated_at", "balance"} {
		delete(updates, k)
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, account)
	}
	updates["updated_at"] = time.Now().UTC()

	if err := db.Model(&account).Updates(updates).Error; err != nil {
		log.Error("Failed to update account", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	db.Where("id = ?", account.ID).First(&account)
	return c.JSON(http.StatusOK, account)
}

// ListJournalEntries returns the tenant's journal entries, newest first
func ListJournalEntries(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if from := c.QueryParam("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var entries []model.JournalEntry
	if err := query.Order("date DESC").Limit(200).Find(&entries).Error; err != nil {
		log.Error("Failed to list journal entries", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve journal entries"})
	}

	return c.JSON(http.StatusOK, entries)
}

// CreateJournalEntry records a balanced double-entry and posts the legs to
// their account balances
func CreateJournalEntry(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()
	tid := tenantID(c)

	var entry model.JournalEntry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(entry.Lines) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "journal entry needs at least two lines"})
	}

	var debits, credits float64
	for _, line := range entry.Lines {
		debits += line.Debit
		credits += line.Credit
	}
	if math.Abs(debits-credits) > 0.005 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "debits and credits must balance"})
	}

	entry.ID = ""
	entry.TenantID = tid
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = "posted"
	}
	if entry.EntryNumber == "" {
		entry.EntryNumber = nextDocumentNumber(db, tid, &model.JournalEntry{}, "JE")
	}
	if userID, ok := c.Get(middleware.ContextUserID).(string); ok {
		entry.CreatedBy = userID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if entry.Status != "posted" {
			return nil
		}
		for _, line := range entry.Lines {
			if line.AccountID == "" {
				continue
			}
			err := tx.Model(&model.Account{}).
				Where("id = ? AND tenant_id = ?", line.AccountID, tid).
				Updates(map[string]interface{}{
					"balance":    gorm.Expr("balance + ?", line.Debit-line.Credit),
					"updated_at": time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create journal entry", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "journal entry creation failed"})
	}

	log.Info("Journal entry created",
		zap.String("entry_id", entry.ID),
		zap.String("number", entry.EntryNumber))
	return c.JSON(http.StatusCreated, entry)
}

// ListExpenses returns the tenant's expenses, newest first
func ListExpenses(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Where("tenant_id = ?", tenantID(c))
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if from := c.QueryParam("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var expenses []model.Expense
	if err := query.Order("date DESC").Limit(200).Find(&expenses).Error; err != nil {
		log.Error("Failed to list expenses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve expenses"})
	}

	return c.JSON(http.StatusOK, expenses)
}

// CreateExpense records an operating expense
func CreateExpense(c echo.Context) error {
	log := logger.FromContext(c)

	var expense model.Expense
	if err := c.Bind(&expense); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if expense.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	expense.ID = ""
	expense.TenantID = tenantID(c)
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	if expense.Category == "" {
		expense.Category = "other"
	}
	if expense.PaymentMethod == "" {
		expense.PaymentMethod = "cash"
	}
	if userID, ok := c.Get(middleware.ContextUserID).(string); ok {
		expense.CreatedBy = userID
	}

	if err := database.GetDB().Create(&expense).Error; err != nil {
		log.Error("Failed to create expense", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "expense creation failed"})
	}

	log.Info("Expense created",
		zap.String("expense_id", expense.ID),
		zap.Float64("amount", expense.Amount))
	return c.JSON(http.StatusCreated, expense)
}

// DeleteExpense removes an expense from the caller's tenant
func DeleteExpense(c echo.Context) error {
	log := logger.FromContext(c)

	result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), tenantID(c)).
		Delete(&model.Expense{})
	if result.Error != nil {
		log.Error("Failed to delete expense", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "expense not found"})
	}

	log.Info("Expense deleted", zap.String("expense_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "expense deleted"})
}
