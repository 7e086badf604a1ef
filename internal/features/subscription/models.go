// Package subscription реализует подписочную машину состояний:
// оформление по оплаченному инвойсу, админ-гранты, проверку доступа
// и уведомления об истечении. models.go описывает структуры таблиц
// subscriptions и payments и тарифные планы.
package subscription

import "time"

// Статусы платежа. Запись payments неизменяема после вставки.
const (
	PaymentCompleted = "completed"
	PaymentPending   = "pending"
	PaymentFailed    = "failed"
)

// Subscription — подписка пользователя. На пользователя всегда не больше
// одной строки: продление перезаписывает существующую.
type Subscription struct {
	UserID    int64     `db:"user_id"`
	Tier      string    `db:"tier"`       // метка тарифа ("vip")
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	PaymentID string    `db:"payment_id"` // ссылка на инвойс или синтетический grant-реф
	Notified  bool      `db:"notified"`   // уведомление об истечении уже отправлено
}

// ActiveAt: подписка активна, пока now ≤ end_date (граница включительно).
func (s *Subscription) ActiveAt(now time.Time) bool {
	return !now.After(s.EndDate)
}

// Payment — неизменяемая запись о платеже.
type Payment struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Amount    float64   `db:"amount"`
	Currency  string    `db:"currency"`
	Status    string    `db:"status"`
	PaymentID string    `db:"payment_id"`
	Plan      string    `db:"plan"`
	CreatedAt time.Time `db:"created_at"`
}

// Plan — тарифный план подписки.
type Plan struct {
	Code  string  // "monthly", "quarterly", "yearly"
	Title string  // для сообщений пользователю
	Days  int     // длительность в днях
	Price float64 // цена в валюте платежей
}

// Duration возвращает длительность плана.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.Days) * 24 * time.Hour
}

// PendingInvoice — ожидающий оплаты инвойс пользователя.
// Живёт в session.Store между /subscribe и /checkpayment.
type PendingInvoice struct {
	InvoiceID int64
	PlanCode  string
	Amount    float64
}
