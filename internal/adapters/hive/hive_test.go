package hive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/hiveclaim/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	testHeadBlockID = "0123abcd78563412aaaaaaaaaaaaaaaaaaaaaaaa"

	methodGetAccounts = "condenser_api.get_accounts"
	methodGetProps    = "condenser_api.get_dynamic_global_properties"
	methodBroadcast   = "condenser_api.broadcast_transaction_synchronous"
)

type recordedCall struct {
	JSONRPC string
	Method  string
	Params  string
}

// rpcHandler answers condenser_api calls from a method table. failOnce
// answers the first call of a method with an HTTP status; rpcErrors answers
// every later call of a method with a node error.
type rpcHandler struct {
	results   map[string]any
	failOnce  map[string]int
	rpcErrors map[string]map[string]any
	calls     atomic.Int32

	mu     sync.Mutex
	seen   []recordedCall
	lastTx *Transaction
}

func (h *rpcHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	var req struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      uint64          `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.seen = append(h.seen, recordedCall{JSONRPC: req.JSONRPC, Method: req.Method, Params: string(req.Params)})
	if req.Method == methodBroadcast {
		var params []Transaction
		if err := json.Unmarshal(req.Params, &params); err == nil && len(params) == 1 {
			h.lastTx = &params[0]
		}
	}
	status, fail := h.failOnce[req.Method]
	if fail {
		delete(h.failOnce, req.Method)
	}
	rpcErr, isErr := h.rpcErrors[req.Method]
	h.mu.Unlock()

	if fail {
		w.WriteHeader(status)
		return
	}
	if isErr {
		writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": rpcErr})
		return
	}
	result, ok := h.results[req.Method]
	if !ok {
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "method not found"},
		})
		return
	}
	writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func (h *rpcHandler) count(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.seen {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (h *rpcHandler) last() recordedCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.seen) == 0 {
		return recordedCall{}
	}
	return h.seen[len(h.seen)-1]
}

func (h *rpcHandler) tx() *Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastTx
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(nodes ...string) *Client {
	c, err := NewClient(nodes, WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	if err != nil {
		panic(err)
	}
	return c
}

func accountResult(name, hive, hbd, vests string) map[string]any {
	return map[string]any{
		"name":                   name,
		"reward_hive_balance":    hive,
		"reward_hbd_balance":     hbd,
		"reward_vesting_balance": vests,
	}
}

func headBlock(num int) map[string]any {
	return map[string]any{
		"head_block_number": num,
		"head_block_id":     testHeadBlockID,
		"time":              "2024-01-02T03:04:05",
	}
}

type fakeSigner struct {
	signatures []string
	err        error
	gotKey     model.Credential
}

func (s *fakeSigner) Sign(_ context.Context, tx Transaction, key model.Credential) (Transaction, error) {
	s.gotKey = key
	if s.err != nil {
		return Transaction{}, s.err
	}
	tx.Signatures = append(tx.Signatures, s.signatures...)
	return tx, nil
}

func TestNewClient(t *testing.T) {
	Convey("Given client construction", t, func() {
		Convey("When no nodes are given", func() {
			_, err := NewClient(nil)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrNoNodes), ShouldBeTrue)
			})
		})

		Convey("When a shared http.Client is combined with a timeout", func() {
			shared := &http.Client{}
			c, err := NewClient([]string{"http://127.0.0.1:1"}, WithTimeout(3*time.Second), WithHTTPClient(shared))

			Convey("Then the timeout applies to a copy", func() {
				So(err, ShouldBeNil)
				So(shared.Timeout, ShouldEqual, time.Duration(0))
				So(c.client, ShouldNotPointTo, shared)
				So(c.client.Timeout, ShouldEqual, 3*time.Second)
			})
		})
	})
}

func TestClientRequests(t *testing.T) {
	Convey("Given a node answering condenser_api calls", t, func() {
		h := &rpcHandler{results: map[string]any{
			methodGetAccounts: []any{accountResult("alice", "1.000 HIVE", "0.000 HBD", "0.000000 VESTS")},
			methodGetProps:    headBlock(42),
		}}
		server := httptest.NewServer(h)
		defer server.Close()
		c := newTestClient(server.URL)

		Convey("When fetching accounts", func() {
			accounts, err := c.GetAccounts(context.Background(), "alice", "bob")

			Convey("Then the names are sent as one array parameter", func() {
				So(err, ShouldBeNil)
				call := h.last()
				So(call.JSONRPC, ShouldEqual, "2.0")
				So(call.Method, ShouldEqual, methodGetAccounts)
				So(call.Params, ShouldEqual, `[["alice","bob"]]`)
			})

			Convey("Then the known accounts are decoded", func() {
				So(accounts, ShouldHaveLength, 1)
				So(accounts[0].Name, ShouldEqual, "alice")
				So(accounts[0].RewardHiveBalance, ShouldEqual, "1.000 HIVE")
			})
		})

		Convey("When fetching the dynamic global properties", func() {
			props, err := c.GetDynamicGlobalProperties(context.Background())

			Convey("Then params is an empty array", func() {
				So(err, ShouldBeNil)
				So(h.last().Params, ShouldEqual, `[]`)
				So(props.HeadBlockNumber, ShouldEqual, uint32(42))
			})
		})

		Convey("When the node reports an error", func() {
			_, err := c.BroadcastTransactionSynchronous(context.Background(), Transaction{})

			Convey("Then it surfaces as an RPCError after one attempt", func() {
				var rpcErr *RPCError
				So(errors.As(err, &rpcErr), ShouldBeTrue)
				So(rpcErr.Code, ShouldEqual, -32601)
				So(h.calls.Load(), ShouldEqual, int32(1))
			})
		})
	})
}

func TestClientRetries(t *testing.T) {
	Convey("Given a failing node ahead of a healthy one", t, func() {
		var downCalls atomic.Int32
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			downCalls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		up := &rpcHandler{results: map[string]any{methodGetAccounts: []any{}}}
		upServer := httptest.NewServer(up)
		defer upServer.Close()

		c := newTestClient(down.URL, upServer.URL)
		_, err := c.GetAccounts(context.Background(), "alice")

		Convey("Then the call moves to the healthy node", func() {
			So(err, ShouldBeNil)
			So(downCalls.Load(), ShouldEqual, int32(1))
			So(up.calls.Load(), ShouldEqual, int32(1))
			So(c.Node(), ShouldEqual, upServer.URL)
		})

		Convey("Then the healthy node stays active", func() {
			_, err := c.GetAccounts(context.Background(), "alice")
			So(err, ShouldBeNil)
			So(downCalls.Load(), ShouldEqual, int32(1))
		})
	})

	Convey("Given a rate-limited node", t, func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeJSON(w, map[string]any{"jsonrpc": "2.0", "id": 1, "result": []any{}})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetAccounts(context.Background(), "alice")

		Convey("Then reads are retried until they succeed", func() {
			So(err, ShouldBeNil)
			So(calls.Load(), ShouldEqual, int32(3))
		})
	})

	Convey("Given a node that never recovers", t, func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c, err := NewClient([]string{server.URL}, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
		So(err, ShouldBeNil)
		_, err = c.GetAccounts(context.Background(), "alice")

		Convey("Then the read gives up after the retry budget", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "max retries exceeded")
			So(calls.Load(), ShouldEqual, int32(3))
		})
	})

	Convey("Given a cancelled context", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestClient(server.URL).GetAccounts(ctx, "alice")

		Convey("Then the call stops with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestBroadcastIsSentOnce(t *testing.T) {
	Convey("Given a node whose first broadcast fails in transit", t, func() {
		h := &rpcHandler{
			results:  map[string]any{methodGetProps: headBlock(7)},
			failOnce: map[string]int{methodBroadcast: http.StatusBadGateway},
			rpcErrors: map[string]map[string]any{
				methodBroadcast: {"code": -32000, "message": "Duplicate transaction check failed"},
			},
		}
		server := httptest.NewServer(h)
		defer server.Close()

		client := newTestClient(server.URL)
		gw := NewGateway(client, NewSubmitter(client, &fakeSigner{signatures: []string{"1f00"}}))
		balance := model.Balance{model.NewAmount(SymbolHive, 1000, PrecisionHive)}

		_, err := gw.SubmitClaim(context.Background(), "alice", balance, "5Jkey")

		Convey("Then the transaction is not re-sent", func() {
			So(h.count(methodBroadcast), ShouldEqual, 1)
		})

		Convey("Then the outcome is reported as unknown, not as a node rejection", func() {
			So(errors.Is(err, ErrBroadcastUnknown), ShouldBeTrue)
			var rpcErr *RPCError
			So(errors.As(err, &rpcErr), ShouldBeFalse)
		})

		Convey("Then reads keep their retries", func() {
			h.mu.Lock()
			h.failOnce = map[string]int{methodGetProps: http.StatusBadGateway}
			h.mu.Unlock()
			_, err := client.GetDynamicGlobalProperties(context.Background())
			So(err, ShouldBeNil)
			So(h.count(methodGetProps), ShouldEqual, 3)
		})
	})
}

func TestParseAsset(t *testing.T) {
	Convey("Given asset strings", t, func() {
		Convey("A HIVE amount round-trips", func() {
			a, err := ParseAsset("1.234 HIVE")
			So(err, ShouldBeNil)
			So(a.Symbol, ShouldEqual, "HIVE")
			So(a.Precision, ShouldEqual, int32(3))
			So(FormatAsset(a), ShouldEqual, "1.234 HIVE")
		})

		Convey("VESTS keep six decimals", func() {
			v, err := ParseAsset("12.000001 VESTS")
			So(err, ShouldBeNil)
			So(v.Precision, ShouldEqual, int32(6))
		})

		Convey("A zero amount is zero", func() {
			z, err := ParseAsset("0.000 HBD")
			So(err, ShouldBeNil)
			So(z.IsZero(), ShouldBeTrue)
		})

		Convey("Malformed strings are rejected", func() {
			for _, bad := range []string{"", "1.000", "abc HIVE", "1.000 HIVE extra"} {
				_, err := ParseAsset(bad)
				So(errors.Is(err, ErrMalformedAsset), ShouldBeTrue)
			}
		})
	})
}

func TestNewTransaction(t *testing.T) {
	Convey("Given head block properties", t, func() {
		props := &DynamicGlobalProperties{
			HeadBlockNumber: 0x0123ABCD,
			HeadBlockID:     testHeadBlockID,
			Time:            "2024-01-02T03:04:05",
		}

		Convey("When building a transaction", func() {
			tx, err := NewTransaction(props, DefaultExpiration, Operation{Type: "vote", Value: map[string]any{}})
			So(err, ShouldBeNil)

			Convey("Then the TaPoS fields reference the head block", func() {
				So(tx.RefBlockNum, ShouldEqual, uint16(0xABCD))
				So(tx.RefBlockPrefix, ShouldEqual, uint32(0x12345678))
				So(tx.Expiration, ShouldEqual, "2024-01-02T03:05:05")
			})

			Convey("Then it encodes in condenser_api form", func() {
				raw, err := json.Marshal(tx)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"operations":[["vote",{}]]`)
				So(string(raw), ShouldContainSubstring, `"extensions":[]`)
				So(string(raw), ShouldContainSubstring, `"signatures":[]`)
			})
		})

		Convey("When the head block id or time is malformed", func() {
			_, idErr := NewTransaction(&DynamicGlobalProperties{HeadBlockID: "zz", Time: props.Time}, DefaultExpiration)
			_, timeErr := NewTransaction(&DynamicGlobalProperties{HeadBlockID: testHeadBlockID, Time: "yesterday"}, DefaultExpiration)

			Convey("Then building fails", func() {
				So(idErr, ShouldNotBeNil)
				So(timeErr, ShouldNotBeNil)
			})
		})
	})
}

func TestGateway(t *testing.T) {
	Convey("Given a node with a funded account", t, func() {
		h := &rpcHandler{results: map[string]any{
			methodGetAccounts: []any{accountResult("alice", "1.500 HIVE", "0.250 HBD", "1234.567890 VESTS")},
			methodGetProps:    headBlock(0x0123ABCD),
			methodBroadcast: map[string]any{
				"id":        "deadbeef",
				"block_num": 19000001,
				"trx_num":   3,
				"expired":   false,
			},
		}}
		server := httptest.NewServer(h)
		defer server.Close()
		client := newTestClient(server.URL)

		Convey("When querying balances", func() {
			gw := NewGateway(client, NewSubmitter(client, nil))
			balance, err := gw.ClaimableBalance(context.Background(), "alice")
			_, unknownErr := gw.ClaimableBalance(context.Background(), "bob")

			Convey("Then all three reward components are returned", func() {
				So(err, ShouldBeNil)
				So(balance.String(), ShouldEqual, "1.500 HIVE, 0.250 HBD, 1234.567890 VESTS")
			})

			Convey("Then an account the node omits is unknown", func() {
				So(errors.Is(unknownErr, ErrUnknownAccount), ShouldBeTrue)
			})
		})

		Convey("When submitting a claim", func() {
			signer := &fakeSigner{signatures: []string{"1f00"}}
			gw := NewGateway(client, NewSubmitter(client, signer))
			balance := model.Balance{
				model.NewAmount(SymbolHive, 1500, PrecisionHive),
				model.NewAmount(SymbolVests, 2000000, PrecisionVests),
			}
			receipt, err := gw.SubmitClaim(context.Background(), "alice", balance, "5Jkey")

			Convey("Then the receipt comes from the broadcast result", func() {
				So(err, ShouldBeNil)
				So(receipt, ShouldResemble, model.Receipt{TxID: "deadbeef", BlockNum: 19000001})
				So(signer.gotKey, ShouldEqual, model.Credential("5Jkey"))
			})

			Convey("Then the signed claim_reward_balance is broadcast", func() {
				tx := h.tx()
				So(tx, ShouldNotBeNil)
				So(tx.Signatures, ShouldResemble, []string{"1f00"})
				So(tx.RefBlockNum, ShouldEqual, uint16(0xABCD))
				So(tx.Operations, ShouldHaveLength, 1)
				So(tx.Operations[0].Type, ShouldEqual, "claim_reward_balance")

				var op ClaimRewardBalance
				So(json.Unmarshal(tx.Operations[0].Value.(json.RawMessage), &op), ShouldBeNil)
				So(op, ShouldResemble, ClaimRewardBalance{
					Account:     "alice",
					RewardHive:  "1.500 HIVE",
					RewardHBD:   "0.000 HBD",
					RewardVests: "2.000000 VESTS",
				})
			})
		})

		Convey("When the submitter has a longer expiration", func() {
			s := NewSubmitter(client, &fakeSigner{signatures: []string{"1f00"}}, WithExpiration(5*time.Minute))
			_, err := s.Submit(context.Background(), "5Jkey", ClaimRewardBalanceOp("alice", nil))

			Convey("Then the transaction expires that far past the head block", func() {
				So(err, ShouldBeNil)
				So(h.tx().Expiration, ShouldEqual, "2024-01-02T03:09:05")
			})
		})
	})
}

func TestSubmitterSignerFailures(t *testing.T) {
	Convey("Given a node and a claim operation", t, func() {
		h := &rpcHandler{results: map[string]any{methodGetProps: headBlock(1)}}
		server := httptest.NewServer(h)
		defer server.Close()
		client := newTestClient(server.URL)
		op := ClaimRewardBalanceOp("alice", nil)

		Convey("When no signer is configured", func() {
			_, err := NewSubmitter(client, nil).Submit(context.Background(), "k", op)
			So(errors.Is(err, ErrNoSigner), ShouldBeTrue)
		})

		Convey("When the signer returns no signatures", func() {
			_, err := NewSubmitter(client, &fakeSigner{}).Submit(context.Background(), "k", op)
			So(errors.Is(err, ErrUnsigned), ShouldBeTrue)
		})

		Convey("When the signer fails", func() {
			boom := errors.New("signer down")
			_, err := NewSubmitter(client, &fakeSigner{err: boom}).Submit(context.Background(), "k", op)

			Convey("Then nothing is broadcast", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(h.tx(), ShouldBeNil)
			})
		})
	})
}
