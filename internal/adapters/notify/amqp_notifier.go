package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	customErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
)

// EmailMessage is the payload the communications worker consumes from the
// notification queue.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// AMQPNotifier publishes mail jobs to a durable queue instead of speaking
// SMTP on the request path.
type AMQPNotifier struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "amqp dial")
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, customErrors.WrapInternal(err, "amqp channel")
	}

	if _, err := chn.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		chn.Close()
		conn.Close()
		return nil, customErrors.WrapInternal(err, "declare queue")
	}

	return &AMQPNotifier{conn: conn, chn: chn, queue: queue}, nil
}

func (n *AMQPNotifier) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(EmailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return customErrors.WrapInternal(err, "marshal email message")
	}

	return n.chn.PublishWithContext(
		ctx,
		"",      // exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
		},
	)
}

func (n *AMQPNotifier) Close() error {
	if err := n.chn.Close(); err != nil {
		return err
	}
	return n.conn.Close()
}
