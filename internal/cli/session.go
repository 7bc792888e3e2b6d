package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSessionCmd создаёт группу команд для управления сессиями.
func NewSessionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage study sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(clientFn, outputFn),
		newSessionShowCmd(clientFn, outputFn),
		newSessionCreateCmd(clientFn, outputFn),
		newSessionCompleteCmd(clientFn, outputFn),
		newSessionRescheduleCmd(clientFn, outputFn),
		newSessionDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newSessionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List study sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := clientFn().ListSessions(userID)
			if err != nil {
				return err
			}

			outputFn().Sessions(sessions)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "Filter by user ID")

	return cmd
}

func newSessionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id: %s", args[0])
			}

			session, err := clientFn().GetSession(id)
			if err != nil {
				return err
			}

			outputFn().Session(session)
			return nil
		},
	}
}

func newSessionCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req SessionRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new study session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			session, err := clientFn().CreateSession(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session created: %d", session.ID))
			out.Session(session)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.UserID, "user-id", 0, "User ID (required)")
	cmd.Flags().Int64Var(&req.CourseID, "course-id", 0, "Course ID (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Session title (required)")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time, e.g. 2024-01-01T10:00:00 (required)")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time (required)")
	cmd.MarkFlagRequired("user-id")
	cmd.MarkFlagRequired("course-id")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newSessionCompleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a study session as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id: %s", args[0])
			}

			msg, err := clientFn().CompleteSession(id)
			if err != nil {
				return err
			}

			outputFn().Success(msg)
			return nil
		},
	}
}

func newSessionRescheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var newStart, newEnd string

	cmd := &cobra.Command{
		Use:   "reschedule ID",
		Short: "Reschedule a study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id: %s", args[0])
			}

			msg, err := clientFn().RescheduleSession(id, newStart, newEnd)
			if err != nil {
				return err
			}

			outputFn().Success(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&newStart, "start", "", "New start time (required)")
	cmd.Flags().StringVar(&newEnd, "end", "", "New end time (required)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}

func newSessionDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a study session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id: %s", args[0])
			}

			msg, err := clientFn().DeleteSession(id)
			if err != nil {
				return err
			}

			outputFn().Success(msg)
			return nil
		},
	}
}
