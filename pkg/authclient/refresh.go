package authclient

import "context"

// refreshAttempt — общий дескриптор одного сетевого обмена. Конкурентные
// вызовы HandleRefresh ждут один done-канал и видят один результат вместо
// опроса флага по таймеру или второго сетевого вызова.
type refreshAttempt struct {
	done chan struct{}
	ok   bool
}

// HandleRefresh выполняет тихое обновление пары токенов.
//
// true — сессия продлена; false — сессия завершена, хранилище в анонимном
// состоянии. Пока обмен в полёте, второй не запускается: новые вызовы
// присоединяются к текущей попытке. Отказ бэкенда не ретраится — ровно один
// обмен на попытку: отвергнутый refresh-токен означает повторный вход.
func (c *Client) HandleRefresh(ctx context.Context) bool {
	c.mu.Lock()

	if a := c.inflight; a != nil {
		c.mu.Unlock()

		select {
		case <-a.done:
			return a.ok
		case <-ctx.Done():
			return false
		}
	}

	refresh := c.store.RefreshToken()
	if refresh == "" {
		c.mu.Unlock()
		c.store.Logout()
		return false
	}

	a := &refreshAttempt{done: make(chan struct{})}
	c.inflight = a
	gen := c.store.Generation()
	c.store.SetRefreshing(true)
	c.mu.Unlock()

	// isRefreshing снимается на любом пути выхода, до пробуждения ждущих.
	defer func() {
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()

		c.store.SetRefreshing(false)
		close(a.done)
	}()

	creds, err := ExchangeRefresh(ctx, c.rawHC, c.refreshURL, refresh)
	if err != nil {
		c.store.Logout()
		return false
	}

	// Logout, случившийся во время обмена, выигрывает: устаревший результат
	// не перезаписывает более позднее анонимное состояние.
	if !c.store.CommitRefresh(creds, gen) {
		return false
	}

	a.ok = true

	return true
}
