package mq

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// retryDelay — задержка между попытками подключения по умолчанию.
const retryDelay = 5 * time.Second

// Connection — обёртка над AMQP соединением для отправки логов.
//
// Особенности:
//   - Init не блокирует старт процесса: при неудаче фоновая горутина
//     повторяет попытки с фиксированной задержкой, пока не подключится
//   - В полёте всегда не больше одного dial: конкурентные вызовы Init
//     ждут завершения текущей попытки, а при живом фоновом retry
//     возвращают ошибку сразу — переподключением занимается он
//   - При разрыве соединение восстанавливается автоматически
//   - Отсутствие соединения никогда не блокирует вызывающего: Publish
//     просто возвращает ошибку, сообщение отбрасывается
type Connection struct {
	url        string
	logger     *slog.Logger
	dial       func(url string) (*amqp.Connection, error)
	retryDelay time.Duration

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	attempt  chan struct{} // non-nil, пока dial в полёте; закрывается по его завершении
	retrying bool          // true, пока жив фоновый retry loop
	closed   bool
	closedCh chan struct{}
}

// NewConnection создаёт Connection без установки соединения.
// Само подключение выполняется через Init.
func NewConnection(url string, logger *slog.Logger) *Connection {
	return &Connection{
		url:        url,
		logger:     logger,
		dial:       amqp.Dial,
		retryDelay: retryDelay,
		closedCh:   make(chan struct{}),
	}
}

// Init устанавливает соединение с брокером.
//
// Если соединение уже установлено — no-op. Если dial уже в полёте —
// ждёт его завершения вместо параллельного подключения. Если фоновый
// retry уже работает — возвращает ошибку, не подключаясь: дублировать
// супервизора нельзя. При неудаче первой попытки запускает фоновый
// retry и возвращает ошибку; процесс продолжает работу без синка.
func (c *Connection) Init() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("connection closed")
	}
	if c.conn != nil && !c.conn.IsClosed() {
		c.mu.Unlock()
		return nil
	}
	if c.attempt != nil {
		// Другой вызов уже подключается — ждём его.
		done := c.attempt
		c.mu.Unlock()
		<-done
		if c.IsReady() {
			return nil
		}
		return fmt.Errorf("connect in progress failed")
	}
	if c.retrying {
		c.mu.Unlock()
		return fmt.Errorf("reconnect in progress")
	}
	done := make(chan struct{})
	c.attempt = done
	c.mu.Unlock()

	err := c.connect()

	c.mu.Lock()
	c.attempt = nil
	startRetry := err != nil && !c.closed
	if startRetry {
		c.retrying = true
	}
	c.mu.Unlock()
	close(done)

	if err != nil {
		if startRetry {
			c.logger.Warn("failed to connect to RabbitMQ, will retry in background",
				"error", err, "delay", c.retryDelay)
			go c.retryLoop()
		}
		return err
	}

	go c.watchConnection()
	return nil
}

// connect устанавливает соединение, открывает канал и объявляет топологию.
// Вызывается только владельцем c.attempt — dial всегда один.
func (c *Connection) connect() error {
	conn, err := c.dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ch.Close()
		conn.Close()
		return fmt.Errorf("connection closed")
	}
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")

	return nil
}

// retryLoop повторяет подключение с фиксированной задержкой,
// пока не подключится или пока соединение не закроют.
// Запускается только после установки флага retrying — loop всегда один.
func (c *Connection) retryLoop() {
	defer func() {
		c.mu.Lock()
		c.retrying = false
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(c.retryDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.closedCh:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		done := make(chan struct{})
		c.attempt = done
		c.mu.Unlock()

		err := c.connect()

		c.mu.Lock()
		c.attempt = nil
		c.mu.Unlock()
		close(done)

		if err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			continue
		}

		go c.watchConnection()
		return
	}
}

// watchConnection следит за соединением и запускает retry при разрыве.
func (c *Connection) watchConnection() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return
	}

	notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-c.closedCh:
		return
	case err := <-notifyClose:
		if err != nil {
			c.logger.Warn("connection closed", "error", err)
		}
	}

	c.mu.Lock()
	if c.closed || c.retrying {
		c.mu.Unlock()
		return
	}
	c.retrying = true
	c.mu.Unlock()

	c.retryLoop()
}

// Channel возвращает текущий AMQP канал или nil, если соединения нет.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.channel
}

// IsReady возвращает true, если соединение установлено.
func (c *Connection) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil
}

// Publish публикует сообщение в exchange.
// Возвращает ошибку, если соединения нет; вызывающий решает,
// отбросить сообщение или нет.
func (c *Connection) Publish(exchange Exchange, routingKey RoutingKey, publishing amqp.Publishing) error {
	c.mu.RLock()
	ch := c.channel
	ready := c.conn != nil && !c.conn.IsClosed()
	c.mu.RUnlock()

	if !ready || ch == nil {
		return fmt.Errorf("no channel available")
	}

	err := ch.Publish(
		string(exchange),
		string(routingKey),
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}

// Close закрывает соединение и останавливает фоновые горутины.
// Ошибки закрытия проглатываются: на shutdown они не важны.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closedCh)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", "error", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing connection", "error", err)
		}
	}

	c.logger.Info("RabbitMQ connection closed")
}
