package watcher

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Stats 运行统计，可在轮询进行中读取
type Stats struct {
	mu             sync.Mutex
	ticks          int
	seen           int
	handled        int
	failures       int
	injectFailures int
	ruleHits       map[string]int
}

// Snapshot 统计快照
type Snapshot struct {
	Ticks int `json:"ticks"`
	// Seen 识别为目标的对话框数量（每个句柄只计一次）
	Seen    int `json:"seen"`
	Handled int `json:"handled"`
	// Failures 动作执行失败次数
	Failures       int            `json:"failures"`
	InjectFailures int            `json:"inject_failures"`
	RuleHits       map[string]int `json:"rule_hits"`
}

func newStats() *Stats {
	return &Stats{ruleHits: make(map[string]int)}
}

func (s *Stats) update(fn func(s *Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Snapshot 返回当前统计的副本
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	hits := make(map[string]int, len(s.ruleHits))
	for k, v := range s.ruleHits {
		hits[k] = v
	}
	return Snapshot{
		Ticks:          s.ticks,
		Seen:           s.seen,
		Handled:        s.handled,
		Failures:       s.failures,
		InjectFailures: s.injectFailures,
		RuleHits:       hits,
	}
}

// Rules 命中过的规则名称，按名称排序
func (s Snapshot) Rules() []string {
	names := lo.Keys(s.RuleHits)
	slices.Sort(names)
	return names
}
