package scheduling

import (
	"fmt"
	"sync"

	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/timestamp"
	"github.com/robfig/cron/v3"
)

//CronScheduler runs named jobs on cron schedules. A job run is skipped while its previous run is in progress
type CronScheduler struct {
	mutex *sync.RWMutex

	cronInstance *cron.Cron
	//job name: EntryID
	scheduledEntries map[string]cron.EntryID
}

//NewCronScheduler returns CronScheduler but not started!!
//for starting scheduling run CronScheduler.Start()
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		mutex: &sync.RWMutex{},
		cronInstance: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		scheduledEntries: map[string]cron.EntryID{},
	}
}

func (s *CronScheduler) Start() {
	s.cronInstance.Start()
}

//Schedule adds the job with scheduleTiming (standard cron format e.g. */5 * * * * or @every 1m)
func (s *CronScheduler) Schedule(name, scheduleTiming string, job func()) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exist := s.scheduledEntries[name]; exist {
		entry := s.cronInstance.Entry(entryID)
		return fmt.Errorf("Job [%s] is already scheduled (next run: %s | last run: %s)", name, entry.Next.Format(timestamp.Layout), entry.Prev.Format(timestamp.Layout))
	}

	entryID, err := s.cronInstance.AddFunc(scheduleTiming, func() {
		defer func() {
			if r := recover(); r != nil {
				logging.SystemErrorf("Job [%s] panic: %v", name, r)
			}
		}()
		job()
	})
	if err != nil {
		return fmt.Errorf("Error scheduling job [%s] with [%s]: %v", name, scheduleTiming, err)
	}

	s.scheduledEntries[name] = entryID
	return nil
}

//Remove deletes the job from the scheduler
func (s *CronScheduler) Remove(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exist := s.scheduledEntries[name]; exist {
		s.cronInstance.Remove(entryID)
		delete(s.scheduledEntries, name)
	}
}

//Scheduled returns true if the job is scheduled
func (s *CronScheduler) Scheduled(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exist := s.scheduledEntries[name]
	return exist
}

func (s *CronScheduler) Close() error {
	<-s.cronInstance.Stop().Done()

	return nil
}
