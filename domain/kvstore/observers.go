package kvstore

import (
	"sync"
	"time"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/distributeddata/kvstore/util/panics"
	"github.com/google/uuid"
)

// Observer is called with every change notification of a subscription.
// Calls for one subscription never overlap and arrive in commit order.
type Observer func(notification *model.ChangeNotification)

// SubscriptionID identifies a subscription returned by On.
type SubscriptionID uuid.UUID

func (id SubscriptionID) String() string {
	return uuid.UUID(id).String()
}

// subscription delivers notifications to one observer from a goroutine
// of its own, through an unbounded queue, so writers never wait for
// observers.
type subscription struct {
	id            SubscriptionID
	subscribeType model.SubscribeType
	observer      Observer
	store         *Store

	mtx    sync.Mutex
	queue  []*model.ChangeNotification
	wake   chan struct{}
	quit   chan struct{}
	closed bool
}

func newSubscription(store *Store, subscribeType model.SubscribeType, observer Observer) *subscription {
	return &subscription{
		id:            SubscriptionID(uuid.New()),
		subscribeType: subscribeType,
		observer:      observer,
		store:         store,
		wake:          make(chan struct{}, 1),
		quit:          make(chan struct{}),
	}
}

func (sub *subscription) enqueue(notification *model.ChangeNotification) {
	sub.mtx.Lock()
	defer sub.mtx.Unlock()

	if sub.closed {
		return
	}
	sub.queue = append(sub.queue, notification)
	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

// stop ends delivery and returns how many queued notifications were
// dropped. A callback already running is not interrupted.
func (sub *subscription) stop() int {
	sub.mtx.Lock()
	defer sub.mtx.Unlock()

	if sub.closed {
		return 0
	}
	sub.closed = true
	dropped := len(sub.queue)
	sub.queue = nil
	close(sub.quit)
	return dropped
}

// next blocks until a notification is queued, and returns false once the
// subscription is stopped.
func (sub *subscription) next() (*model.ChangeNotification, bool) {
	for {
		sub.mtx.Lock()
		if sub.closed {
			sub.mtx.Unlock()
			return nil, false
		}
		if len(sub.queue) > 0 {
			notification := sub.queue[0]
			sub.queue[0] = nil
			sub.queue = sub.queue[1:]
			sub.mtx.Unlock()
			return notification, true
		}
		sub.mtx.Unlock()

		select {
		case <-sub.wake:
		case <-sub.quit:
		}
	}
}

func (sub *subscription) run() {
	for {
		notification, ok := sub.next()
		if !ok {
			return
		}
		sub.deliver(notification)
	}
}

func (sub *subscription) deliver(notification *model.ChangeNotification) {
	defer panics.RecoverAndLog(log, "observer "+sub.id.String())

	sub.observer(notification)
	sub.store.metrics.RecordNotification(sub.store.id)
}

// On subscribes observer to the changes selected by subscribeType.
// Changes are only ever made locally, so a SubscribeTypeRemote observer
// is registered but never called.
func (s *Store) On(subscribeType model.SubscribeType, observer Observer) (id SubscriptionID, err error) {
	defer s.measure("on", time.Now(), &err)

	if !subscribeType.IsValid() {
		return SubscriptionID{}, invalidArgument("unknown subscribe type %d", subscribeType)
	}
	if observer == nil {
		return SubscriptionID{}, invalidArgument("nil observer")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return SubscriptionID{}, err
	}

	sub := newSubscription(s, subscribeType, observer)
	s.subscriptions[sub.id] = sub
	if subscribeType.ReceivesLocal() {
		spawn(sub.run)
	}
	log.Debugf("Store %s subscribed observer %s to %s changes", s.id, sub.id, subscribeType)
	return sub.id, nil
}

// Off removes the subscription id. Queued notifications are dropped.
func (s *Store) Off(id SubscriptionID) (err error) {
	defer s.measure("off", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	sub, ok := s.subscriptions[id]
	if !ok {
		return invalidArgument("unknown subscription %s", id)
	}
	delete(s.subscriptions, id)
	s.dropPending(sub.stop())
	return nil
}

// OffAll removes every subscription.
func (s *Store) OffAll() (err error) {
	defer s.measure("off_all", time.Now(), &err)

	s.mtx.Lock()
	defer s.mtx.Unlock()

	err = s.checkOpen()
	if err != nil {
		return err
	}
	for id, sub := range s.subscriptions {
		delete(s.subscriptions, id)
		s.dropPending(sub.stop())
	}
	return nil
}

// SubscriptionCount returns how many subscriptions the store has.
func (s *Store) SubscriptionCount() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.subscriptions)
}

func (s *Store) dropPending(dropped int) {
	if dropped == 0 {
		return
	}
	log.Debugf("Store %s dropped %d undelivered notifications", s.id, dropped)
	for i := 0; i < dropped; i++ {
		s.metrics.RecordDroppedNotification(s.id)
	}
}
