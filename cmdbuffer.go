package tilecl

import "github.com/tilegpu/tilecl/mem"

// TFUJob is a fixed-function transfer-unit job, described by the packed
// register values the submission layer writes to the TFU.
type TFUJob struct {
	ICfg uint32
	IIA  uint32
	IIS  uint32
	ICA  uint32
	IUA  uint32
	IOA  uint32
	IOS  uint32

	Coef [4]uint32
}

// CommandBuffer is a command-recording context. Render jobs recorded into it
// are strictly sequential: starting a new job finalizes the current one.
type CommandBuffer struct {
	Device *Device

	// Jobs holds finished jobs in submission order.
	Jobs []*Job
	// TFUJobs holds fixed-function transfer jobs. They are ordered relative
	// to each other but independent of the render jobs.
	TFUJobs []TFUJob

	arena *mem.Arena
	cur   *Job
}

func NewCommandBuffer(dev *Device) *CommandBuffer {
	return &CommandBuffer{Device: dev, arena: mem.NewArena()}
}

// StartJob finalizes any current job and opens a new one.
func (cb *CommandBuffer) StartJob() (*Job, error) {
	if err := cb.FinishJob(); err != nil {
		return nil, err
	}
	cb.cur = newJob(cb.Device, cb.arena)
	return cb.cur, nil
}

// CurrentJob returns the job being recorded, or nil.
func (cb *CommandBuffer) CurrentJob() *Job {
	return cb.cur
}

// FinishJob seals the current job, resolving all relocations, and appends it
// to the submitted list. A failure abandons the job whole; jobs finished
// earlier stand.
func (cb *CommandBuffer) FinishJob() error {
	job := cb.cur
	if job == nil {
		return nil
	}
	cb.cur = nil
	if err := job.finish(); err != nil {
		job.releaseBOs()
		return err
	}
	cb.Jobs = append(cb.Jobs, job)
	return nil
}

// AbandonJob drops the current job without handoff, releasing its resources.
func (cb *CommandBuffer) AbandonJob() {
	if cb.cur == nil {
		return
	}
	cb.cur.releaseBOs()
	cb.cur = nil
}

// AddTFUJob queues a transfer-unit job.
func (cb *CommandBuffer) AddTFUJob(job TFUJob) {
	cb.TFUJobs = append(cb.TFUJobs, job)
}

// Release frees every buffer object owned by the command buffer's jobs.
func (cb *CommandBuffer) Release() {
	cb.AbandonJob()
	for _, job := range cb.Jobs {
		job.releaseBOs()
	}
	cb.Jobs = nil
}
