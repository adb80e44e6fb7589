package models

// Типы событий платёжного провайдера (Buy Me a Coffee), которые двигают
// машину состояний. Остальные типы журналируются и игнорируются.
const (
	WebhookMembershipStarted   = "membership.started"
	WebhookMembershipRenewed   = "membership.renewed"
	WebhookMembershipCancelled = "membership.cancelled"
	WebhookMembershipExpired   = "membership.expired"
)

// WebhookEvent конверт события платёжного провайдера.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

// WebhookData полезная нагрузка события. Провайдер использует разные имена
// полей в зависимости от типа события, поэтому email и идентификатор
// участника достаются через методы.
type WebhookData struct {
	SupporterEmail  string `json:"supporter_email"`
	PayerEmail      string `json:"payer_email"`
	SupporterID     string `json:"supporter_id"`
	ID              string `json:"id"`
	MembershipLevel string `json:"membership_level"`
}

// Email возвращает контактный адрес из события.
func (d WebhookData) Email() string {
	if d.SupporterEmail != "" {
		return d.SupporterEmail
	}
	return d.PayerEmail
}

// MemberID возвращает идентификатор участника у провайдера.
func (d WebhookData) MemberID() string {
	if d.SupporterID != "" {
		return d.SupporterID
	}
	return d.ID
}
