package scoreclient

// State 请求状态
type State int

const (
	StatePending State = iota // 零值，尚未获取
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result 带状态的结果，取代“空列表既表示加载中又表示没有数据”的写法
type Result[T any] struct {
	State  State
	Data   T
	Reason string
}

func Ready[T any](data T) Result[T] {
	return Result[T]{State: StateReady, Data: data}
}

func Failed[T any](reason string) Result[T] {
	return Result[T]{State: StateFailed, Reason: reason}
}

func (r Result[T]) IsReady() bool   { return r.State == StateReady }
func (r Result[T]) IsFailed() bool  { return r.State == StateFailed }
func (r Result[T]) IsPending() bool { return r.State == StatePending }
