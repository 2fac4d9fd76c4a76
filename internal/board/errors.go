package board

import "fmt"

// LastContainerError rejects deleting a board's only remaining container.
type LastContainerError struct {
	ContainerID string
}

func (e LastContainerError) Error() string {
	return fmt.Sprintf("container %s is the last one on the board", e.ContainerID)
}

// LastItemError rejects deleting a board's only remaining item.
type LastItemError struct {
	ItemID string
}

func (e LastItemError) Error() string {
	return fmt.Sprintf("item %s is the last one on the board", e.ItemID)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
