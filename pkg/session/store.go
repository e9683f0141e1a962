// session хранит состояние аутентификации одного клиентского контекста:
// пару токенов и идентификатор пользователя в памяти с зеркалированием в
// cookie-хранилище, плюс наблюдаемый сигнал "вошёл/вышел" для UI-слоя.
//
// Инварианты:
//   - accessToken и refreshToken устанавливаются и сбрасываются только
//     вместе: после завершённого Login/Logout/CommitRefresh состояние либо
//     полностью аутентифицированное, либо полностью анонимное;
//   - isRefreshing возвращается в false на каждом пути выхода обмена;
//   - каждое изменение зеркалируется в CookieSink, чтобы сессия переживала
//     полную перезагрузку страницы.
package session

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEmptyAccessToken — попытка Login с пустым access-токеном.
	ErrEmptyAccessToken = errors.New("empty access token")

	// ErrEmptyRefreshToken — попытка Login с пустым refresh-токеном.
	ErrEmptyRefreshToken = errors.New("empty refresh token")
)

// Store — сессия текущего клиентского контекста.
// Безопасен для конкурентного использования.
type Store struct {
	mu           sync.Mutex
	creds        Credentials
	isRefreshing bool

	// gen растёт на каждом Logout: обмен, завершившийся после более
	// позднего Logout, по этому счётчику отбрасывает свой результат.
	gen uint64

	sink CookieSink
	subs []func(accessToken string)
}

// NewStore создаёт пустой Store, зеркалирующий изменения в sink.
// sink == nil допустим: состояние живёт только в памяти (удобно в тестах).
func NewStore(sink CookieSink) *Store {
	return &Store{sink: sink}
}

// Login сохраняет полный набор учётных данных и зеркалирует его в cookie.
// Пустой access- или refresh-токен — ошибка без частичной записи:
// хранилище остаётся в прежнем состоянии.
func (s *Store) Login(access, refresh, userID string) error {
	const op = "session.Login"

	if access == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyAccessToken)
	}

	if refresh == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyRefreshToken)
	}

	s.mu.Lock()
	s.creds = Credentials{AccessToken: access, RefreshToken: refresh, UserID: userID}
	if s.sink != nil {
		WriteSession(s.sink, s.creds)
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, access)

	return nil
}

// Logout переводит сессию в анонимное состояние и удаляет cookie.
// Идемпотентен: повторный вызов на анонимной сессии — no-op, не ошибка.
func (s *Store) Logout() {
	s.mu.Lock()

	wasAuthenticated := s.creds.AccessToken != ""
	s.creds = Credentials{}
	s.isRefreshing = false
	s.gen++

	if s.sink != nil {
		ClearSession(s.sink)
	}

	var subs []func(string)
	if wasAuthenticated {
		subs = s.snapshotSubs()
	}
	s.mu.Unlock()

	notify(subs, "")
}

// SyncFrom перечитывает cookie сессии в память. Вызывается один раз после
// старта клиентского рантайма, до первого аутентифицированного запроса:
// вернувшийся пользователь не должен мелькать как разлогиненный.
//
// Неполная пара в cookie трактуется как анонимное состояние —
// частичный набор в память не попадает.
func (s *Store) SyncFrom(src CookieSource) {
	access, _ := src.Cookie(AccessCookie)
	refresh, _ := src.Cookie(RefreshCookie)
	userID, _ := src.Cookie(UserIDCookie)

	if access == "" || refresh == "" {
		access, refresh, userID = "", "", ""
	}

	s.mu.Lock()
	changed := s.creds.AccessToken != access
	s.creds = Credentials{AccessToken: access, RefreshToken: refresh, UserID: userID}

	var subs []func(string)
	if changed {
		subs = s.snapshotSubs()
	}
	s.mu.Unlock()

	notify(subs, access)
}

// CommitRefresh атомарно применяет результат обмена refresh-токена, если с
// момента наблюдения gen не было Logout. Устаревший результат отбрасывается:
// logout, обогнавший обмен, выигрывает, анонимное состояние не затирается.
func (s *Store) CommitRefresh(creds Credentials, gen uint64) bool {
	if !creds.Complete() {
		return false
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}

	s.creds = creds
	if s.sink != nil {
		WriteSession(s.sink, s.creds)
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, creds.AccessToken)

	return true
}

// Subscribe регистрирует наблюдателя изменений access-токена.
// Колбэк вызывается на каждом переходе (login/logout/refresh) с новым
// значением токена; пустая строка означает анонимное состояние.
func (s *Store) Subscribe(fn func(accessToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
}

// SetRefreshing выставляет флаг идущего обмена. Используется координатором
// тихого обновления; наблюдатели могут читать его через IsRefreshing.
func (s *Store) SetRefreshing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isRefreshing = v
}

// IsRefreshing сообщает, идёт ли сейчас обмен refresh-токена.
func (s *Store) IsRefreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isRefreshing
}

// Generation возвращает текущее поколение сессии (растёт на Logout).
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// AccessToken возвращает текущий access-токен ("" — анонимно).
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.AccessToken
}

// RefreshToken возвращает текущий refresh-токен ("" — анонимно).
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.RefreshToken
}

// UserID возвращает идентификатор аутентифицированного пользователя.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds.UserID
}

// Snapshot возвращает копию текущего состояния сессии.
func (s *Store) Snapshot() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.creds
}

// snapshotSubs копирует список подписчиков под мьютексом:
// сами колбэки зовутся уже без него.
func (s *Store) snapshotSubs() []func(string) {
	if len(s.subs) == 0 {
		return nil
	}

	out := make([]func(string), len(s.subs))
	copy(out, s.subs)

	return out
}

func notify(subs []func(string), access string) {
	for _, fn := range subs {
		fn(access)
	}
}
