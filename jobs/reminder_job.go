package jobs

import (
	"log"

	"github.com/prismlearn/mentor_platform/services"
)

// SendSessionReminders sweeps the durable reminder-task table and dispatches
// whatever came due since the last run.
func SendSessionReminders(reminders *services.ReminderService) {
	log.Println("Running job: SendSessionReminders...")

	fired, err := reminders.Sweep()
	if err != nil {
		log.Printf("Error sweeping reminder tasks: %v", err)
		return
	}

	if fired > 0 {
		log.Printf("Dispatched %d session reminder(s).", fired)
	}
}
