package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/stats"
	"github.com/parlorchat/parlor/internal/types"
)

const (
	defaultWorkers = 4
	queueSize      = 256
	maxBodyLength  = 100
	truncationMark = "..."
)

// Task is one pending delivery: notify a single recipient about a new
// message. Tasks are independent; there is no ordering guarantee
// between recipients.
type Task struct {
	UserId int
	Title  string
	Body   string
	Path   string
}

// Payload is the JSON document sent to the Web Push endpoint.
type Payload struct {
	Title   string  `json:"title"`
	Options Options `json:"options"`
}

type Options struct {
	Body     string `json:"body"`
	Data     Data   `json:"data"`
	Tag      string `json:"tag"`
	Renotify bool   `json:"renotify"`
}

type Data struct {
	Path string `json:"path"`
}

// Dispatcher fans message notifications out to recipients' push
// subscriptions on a background worker pool, decoupled from the
// request that created the message.
type Dispatcher struct {
	log       *log.Logger
	db        database.ParlorRepository
	sender    Sender
	stats     stats.StatsProvider
	publicKey string

	queue chan Task
	wg    sync.WaitGroup
}

func NewDispatcher(logger *log.Logger, db database.ParlorRepository, sender Sender, publicKey string, sp stats.StatsProvider) *Dispatcher {
	d := &Dispatcher{
		log:       logger,
		db:        db,
		sender:    sender,
		stats:     sp,
		publicKey: publicKey,
		queue:     make(chan Task, queueSize),
	}

	sp.RegisterMetric(stats.PushDeliveries)
	sp.RegisterMetric(stats.PushFailures)
	sp.RegisterMetric(stats.PrunedPushSubscriptions)

	return d
}

// Configured reports whether push delivery is enabled. Both signing
// keys must be present; otherwise every push path is a silent no-op.
func (d *Dispatcher) Configured() bool {
	return d.publicKey != "" && d.sender != nil
}

// PublicKey returns the configured public signing key, empty when push
// is not configured.
func (d *Dispatcher) PublicKey() string {
	if !d.Configured() {
		return ""
	}
	return d.publicKey
}

func (d *Dispatcher) Run() {
	for i := 0; i < defaultWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) Stop() {
	close(d.queue)
	d.wg.Wait()
}

// MessageCreated computes the recipient set and enqueues one delivery
// task per recipient. It never blocks the caller and never surfaces an
// error to it.
func (d *Dispatcher) MessageCreated(room database.Room, sender database.User, message database.Message) {
	if !d.Configured() {
		return
	}

	members, err := d.db.ListRoomMembers(room.Id)
	if err != nil {
		d.log.Println("ListRoomMembers:", err)
		return
	}

	title := NotificationTitle(room, sender)
	body := TruncateBody(message.Body, maxBodyLength)
	path := "/rooms/" + room.ExternalId

	for _, m := range members {
		if m.Id == sender.Id {
			continue
		}
		d.enqueue(Task{UserId: m.Id, Title: title, Body: body, Path: path})
	}
}

func (d *Dispatcher) enqueue(t Task) {
	select {
	case d.queue <- t:
	default:
		d.log.Printf("push queue full, dropping notification for user %d", t.UserId)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for t := range d.queue {
		d.deliver(t)
	}
}

// deliver attempts the task against each of the recipient's
// subscriptions independently: one failing device never aborts the
// others. Gone endpoints are pruned; other errors are logged and the
// subscription retained.
func (d *Dispatcher) deliver(t Task) {
	subs, err := d.db.ListPushSubscriptions(t.UserId)
	if err != nil {
		d.log.Println("ListPushSubscriptions:", err)
		return
	}

	payload, err := json.Marshal(Payload{
		Title: t.Title,
		Options: Options{
			Body:     t.Body,
			Data:     Data{Path: t.Path},
			Tag:      t.Path,
			Renotify: true,
		},
	})
	if err != nil {
		d.log.Println("marshal push payload:", err)
		return
	}

	for _, sub := range subs {
		err := d.sender.Send(sub, payload)
		switch {
		case errors.Is(err, ErrSubscriptionGone):
			if err := d.db.DeletePushSubscriptionByEndpoint(sub.Endpoint); err != nil {
				d.log.Println("DeletePushSubscriptionByEndpoint:", err)
			}
			d.stats.Incr(stats.PrunedPushSubscriptions)
		case err != nil:
			d.log.Printf("push delivery to user %d failed: %v", t.UserId, err)
			d.stats.Incr(stats.PushFailures)
		default:
			d.stats.Incr(stats.PushDeliveries)
		}
	}
}

// NotificationTitle is the other participant's name for a DM, or the
// #channel name otherwise.
func NotificationTitle(room database.Room, sender database.User) string {
	if room.Kind == types.RoomKindDirectMessage {
		return sender.Name
	}

	return fmt.Sprintf("#%s", room.Name)
}

// TruncateBody shortens s to at most max characters. When truncation
// occurs the result is exactly max characters long and ends in "...".
func TruncateBody(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max-len(truncationMark)]) + truncationMark
}
