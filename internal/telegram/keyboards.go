package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/clip-review-bot/internal/payment"
)

// Callback data
const (
	cbSetupPayment   = "setup_payment"
	cbPaymentPrefix  = "payment_"
	cbClearDBConfirm = "clear_db_confirm"
	cbClearDBCancel  = "clear_db_cancel"
)

// MainKeyboard returns the start menu keyboard
func MainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💳 Реквизиты для выплаты", CallbackData: cbSetupPayment},
			},
		},
	}
}

// MethodKeyboard lists payout methods
func MethodKeyboard() *models.InlineKeyboardMarkup {
	row := func(m payment.Method) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{{Text: m.Title(), CallbackData: cbPaymentPrefix + string(m)}}
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			row(payment.MethodSite),
			row(payment.MethodCard),
			row(payment.MethodUSDT),
		},
	}
}

// ClearDBKeyboard asks the admin to confirm wiping profiles
func ClearDBKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🗑 Да, очистить", CallbackData: cbClearDBConfirm},
				{Text: "⬅️ Отмена", CallbackData: cbClearDBCancel},
			},
		},
	}
}
