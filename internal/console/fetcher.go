package console

import (
	"context"
	"sync"
)

// Fetcher 화면 1개의 재조회 경합 제어.
// Refresh마다 세대 번호를 올리고 이전 in-flight 요청을 취소한다.
// 응답이 돌아왔을 때 세대가 낡았으면 결과를 버린다. 빠른 필터 전환 시
// 늦게 도착한 옛 응답이 새 상태를 덮어쓰는 것을 막는다.
type Fetcher struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin 새 세대 시작. 이전 요청을 취소하고 취소 가능한 컨텍스트와
// 이번 세대 번호를 반환한다.
func (f *Fetcher) Begin(parent context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}

	f.gen++
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel

	return ctx, f.gen
}

// Stale gen이 현재 세대보다 오래됐는지
func (f *Fetcher) Stale(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gen != f.gen
}

// Generation 현재 세대 번호
func (f *Fetcher) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

// Stop 진행 중인 요청 취소
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
