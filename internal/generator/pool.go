package generator

import "sync"

// pool 固定大小的执行池，submit 投递任务，wait 等全部任务跑完
// 不同计划之间没有顺序要求，只做并行度上限控制
type pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newPool(size int) *pool {
	if size <= 0 {
		size = 1
	}
	p := &pool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for fn := range p.tasks {
				fn()
			}
		}()
	}
	return p
}

func (p *pool) submit(fn func()) {
	p.tasks <- fn
}

// wait 关闭任务通道并等待已投递的任务全部执行完
func (p *pool) wait() {
	close(p.tasks)
	p.wg.Wait()
}
