package metrics

// Noop 丢弃所有指标
type Noop struct{}

func (Noop) LockAcquire(string) {}

func (Noop) GuardRetry() {}

func (Noop) LikeConflict() {}

func (Noop) RankingOp(string, string) {}

func (Noop) SimilarCandidates(int) {}

var _ Collector = Noop{}
