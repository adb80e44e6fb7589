package smtp

import "io"

// Client описывает минимальный интерфейс SMTP-клиента, используемый сервисом
// отправки писем. Позволяет подменять реальный клиент в тестах.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Transporter описывает транспорт для установления SMTP-соединений.
type Transporter interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
