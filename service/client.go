package service

import (
	"context"

	"github.com/ros2go/ros2action/internal/logging"
	"github.com/ros2go/ros2action/qos"
	"github.com/ros2go/ros2action/rtps"
	"github.com/ros2go/ros2action/wireid"
)

var log = logging.For("service")

type requestEnvelope[Req any] struct {
	ID   wireid.RequestId
	Body Req
}

type responseEnvelope[Resp any] struct {
	ID   wireid.RequestId
	Body Resp
}

// Client is the client-side ServicePrimitive: it sends requests and
// receives correlated responses over a pair of DDS topics.
type Client[Req any, Resp any] struct {
	reqPub  rtps.Publisher[requestEnvelope[Req]]
	respSub rtps.Subscriber[responseEnvelope[Resp]]
	gen     *wireid.Generator
	mapping wireid.ServiceMapping
	name    string
}

// NewClient creates a Client for the request/reply topic pair
// (reqTopic, respTopic) on participant p, using mapping to correlate
// requests with their responses.
func NewClient[Req any, Resp any](
	p *rtps.LocalParticipant,
	reqTopic, respTopic string,
	policies qos.Policies,
	mapping wireid.ServiceMapping,
) *Client[Req, Resp] {
	var writer wireid.GUID
	copy(writer[:], []byte(p.Name()+":"+reqTopic))

	return &Client[Req, Resp]{
		reqPub:  rtps.NewPublisher[requestEnvelope[Req]](p, reqTopic, policies),
		respSub: rtps.NewSubscriber[responseEnvelope[Resp]](p, respTopic, policies),
		gen:     wireid.NewGenerator(writer),
		mapping: mapping,
		name:    reqTopic,
	}
}

// SendRequest publishes req and returns the RequestId that will
// correlate it with its eventual response. Non-blocking.
func (c *Client[Req, Resp]) SendRequest(req Req) (wireid.RequestId, error) {
	id := c.gen.Next()
	if err := c.reqPub.Publish(requestEnvelope[Req]{ID: id, Body: req}); err != nil {
		return wireid.RequestId{}, err
	}
	return id, nil
}

// ReceiveResponse polls for a response matching reqID. Non-blocking:
// it drains every response currently buffered, discarding any that do
// not match reqID (see the "Correlation loops" design note for why
// unmatched replies are dropped rather than buffered here). Returns
// (nil, nil) if no matching response is currently available.
func (c *Client[Req, Resp]) ReceiveResponse(reqID wireid.RequestId) (*Resp, error) {
	for {
		env, ok, err := c.respSub.Take()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if env.ID == reqID {
			body := env.Body
			return &body, nil
		}
		log.WithField("topic", c.name).Debugf("response not for us: %v != %v", env.ID, reqID)
	}
}

// AsyncCallService sends req and blocks until the matching response
// arrives or ctx is done, combining SendRequest and a correlated
// await. Replies for other in-flight requests observed along the way
// are discarded, exactly as in ReceiveResponse.
func (c *Client[Req, Resp]) AsyncCallService(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	reqID, err := c.SendRequest(req)
	if err != nil {
		return zero, wrapCallError(err, "send request")
	}
	for {
		env, err := c.respSub.TakeBlocking(ctx)
		if err != nil {
			return zero, wrapCallError(err, "await response")
		}
		if env.ID == reqID {
			return env.Body, nil
		}
		log.WithField("topic", c.name).Debugf("response not for us: %v != %v", env.ID, reqID)
	}
}

// Mapping reports the ServiceMapping this client was constructed with.
func (c *Client[Req, Resp]) Mapping() wireid.ServiceMapping { return c.mapping }

// Shutdown releases the client's publisher and subscriber.
func (c *Client[Req, Resp]) Shutdown() {
	c.reqPub.Shutdown()
	c.respSub.Shutdown()
}
