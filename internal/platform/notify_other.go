//go:build !linux

package platform

// Notify does nothing where no notification service is wired up.
func Notify(Notification) (uint32, error) {
	return 0, nil
}
