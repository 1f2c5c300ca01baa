// Command actiondemo runs a Fibonacci-style long-running action
// end-to-end over the in-process rtps substrate: the run subcommand
// submits one goal to a server goroutine that accepts and executes it,
// printing feedback and the result, and the cancel subcommand submits a
// long goal and cancels it, demonstrating the cancellation service.
// Client and server talk to the same in-process LocalParticipant, so
// each subcommand runs both sides in a single process — there is no
// real DDS transport to span processes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ros2go/ros2action/action"
	"github.com/ros2go/ros2action/internal/logging"
	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/wireid"
)

var log = logging.For("actiondemo")

type fibonacciGoal struct{ Order int }
type fibonacciResult struct{ Sequence []int }
type fibonacciFeedback struct{ Partial []int }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		runSubcommand(os.Args[2:])
	case "cancel":
		cancelSubcommand(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: actiondemo <run|cancel> [flags]")
}

// runSubcommand starts a server goroutine and a client in the same
// process, submits one goal, and prints feedback/result as they
// arrive.
func runSubcommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	order := fs.Int("order", 10, "Fibonacci order to compute")
	actionName := fs.String("action", "/fibonacci", "action name to mount")
	timeout := fs.Duration("timeout", 10*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		log.WithError(err).Fatal("parsing flags")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	p := rtps.NewLocalParticipant("actiondemo")
	server := action.NewAsyncActionServer[fibonacciGoal, fibonacciResult, fibonacciFeedback](
		p, *actionName, qos.DefaultServerPolicies(), wireid.Basic)
	client := action.NewActionClient[fibonacciGoal, fibonacciResult, fibonacciFeedback](
		p, *actionName, qos.DefaultClientPolicies(), wireid.Basic)
	defer server.Shutdown()
	defer client.Shutdown()

	go serveFibonacci(ctx, server)

	goalId, resp, err := client.AsyncSendGoal(ctx, fibonacciGoal{Order: *order})
	if err != nil {
		log.WithError(err).Fatal("send goal")
	}
	if !resp.Accepted {
		log.WithField("goal", goalId).Fatal("goal rejected")
	}
	log.WithField("goal", goalId).Info("goal accepted")

	feedback := client.FeedbackStream(goalId)
	go func() {
		for {
			fb, err := feedback.Next(ctx)
			if err != nil {
				return
			}
			fmt.Printf("feedback: %v\n", fb.Partial)
		}
	}()

	result, err := client.AsyncRequestResult(ctx, goalId)
	if err != nil {
		log.WithError(err).Fatal("request result")
	}
	fmt.Printf("result: status=%s sequence=%v\n", result.Status, result.Result.Sequence)
}

// serveFibonacci accepts every submitted goal and executes it by
// publishing one feedback sample per step before succeeding.
func serveFibonacci(ctx context.Context, server *action.AsyncActionServer[fibonacciGoal, fibonacciResult, fibonacciFeedback]) {
	for {
		newHandle, goal, err := server.AsyncReceiveNewGoal(ctx)
		if err != nil {
			return
		}

		if goal.Order < 0 {
			if err := server.RejectGoal(newHandle); err != nil {
				log.WithError(err).Warn("reject goal")
			}
			continue
		}

		acceptedHandle, err := server.AcceptGoal(newHandle, goal)
		if err != nil {
			log.WithError(err).Warn("accept goal")
			continue
		}

		executingHandle, err := server.StartExecutingGoal(acceptedHandle)
		if err != nil {
			log.WithError(err).Warn("start executing goal")
			continue
		}

		go computeFibonacci(ctx, server, executingHandle, goal.Order)
	}
}

func computeFibonacci(ctx context.Context, server *action.AsyncActionServer[fibonacciGoal, fibonacciResult, fibonacciFeedback], handle *action.ExecutingGoalHandle[fibonacciGoal], order int) {
	sequence := []int{0, 1}
	for i := 0; i < order; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		next := sequence[len(sequence)-1] + sequence[len(sequence)-2]
		sequence = append(sequence, next)

		if err := server.PublishFeedback(handle, fibonacciFeedback{Partial: append([]int(nil), sequence...)}); err != nil {
			log.WithError(err).Warn("publish feedback")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := server.SendResultResponse(handle, action.EndSucceeded, fibonacciResult{Sequence: sequence}); err != nil {
		log.WithError(err).Warn("send result")
	}
}

// cancelSubcommand submits a long goal and cancels it partway through,
// demonstrating the cancellation service end to end.
func cancelSubcommand(args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	actionName := fs.String("action", "/fibonacci", "action name to mount")
	timeout := fs.Duration("timeout", 10*time.Second, "overall deadline")
	if err := fs.Parse(args); err != nil {
		log.WithError(err).Fatal("parsing flags")
	}

	ctx, cancelFn := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelFn()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	p := rtps.NewLocalParticipant("actiondemo")
	server := action.NewAsyncActionServer[fibonacciGoal, fibonacciResult, fibonacciFeedback](
		p, *actionName, qos.DefaultServerPolicies(), wireid.Basic)
	client := action.NewActionClient[fibonacciGoal, fibonacciResult, fibonacciFeedback](
		p, *actionName, qos.DefaultClientPolicies(), wireid.Basic)
	defer server.Shutdown()
	defer client.Shutdown()

	go serveFibonacci(ctx, server)
	go func() {
		for {
			cancelHandle, err := server.AsyncReceiveCancelRequest(ctx)
			if err != nil {
				return
			}
			if err := server.RespondToCancelRequests(cancelHandle); err != nil {
				log.WithError(err).Warn("respond to cancel request")
			}
		}
	}()

	goalId, resp, err := client.AsyncSendGoal(ctx, fibonacciGoal{Order: 10000})
	if err != nil {
		log.WithError(err).Fatal("send goal")
	}
	if !resp.Accepted {
		log.WithField("goal", goalId).Fatal("goal rejected")
	}

	time.Sleep(50 * time.Millisecond)

	cancelResp, err := client.AsyncCancelGoal(ctx, goalId, action.TimestampZero)
	if err != nil {
		log.WithError(err).Fatal("cancel goal")
	}
	fmt.Printf("cancel response: %s goals_canceling=%d\n", cancelResp.ReturnCode, len(cancelResp.GoalsCanceling))
}
