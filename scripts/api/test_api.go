// Minimal end-to-end integration test for the CrowdFund API.
package main

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var baseURL = getenv("API_URL", "http://localhost:8080/api")

// 1x1 transparent PNG.
var pixel, _ = hex.DecodeString("89504e470d0a1a0a0000000d4948445200000001000000010806000000" +
	"1f15c4890000000d49444154789c6360000002000154a24f5d0000000049454e44ae426082")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	key := wallet()
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	nonce := challenge(addr)
	token := verify(addr, sign(key, nonce))
	protected(token, addr)

	blogID := createBlog(token, addr)
	checkBlog(blogID)
	removeBlog(blogID)

	postID := createPost(token)
	commentID := comment(token, postID)
	like(token, postID, addr)
	removeComment(postID, commentID)
	removePost(postID)

	askThanks()

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- auth

func wallet() *ecdsa.PrivateKey {
	if hexKey := os.Getenv("PRIVATE_KEY"); hexKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			log.Fatalf("PRIVATE_KEY: %v", err)
		}
		return key
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	return key
}

func sign(key *ecdsa.PrivateKey, nonce string) string {
	msg := "I am signing my one-time nonce: " + nonce
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig)
}

func challenge(addr string) string {
	var resp struct{ Nonce string }
	doJSON("POST", "/auth/nonce", map[string]any{"address": addr}, &resp, http.StatusOK)
	if resp.Nonce == "" {
		log.Fatal("nonce: empty nonce")
	}
	return resp.Nonce
}

func verify(addr, sig string) string {
	var resp struct{ Token string }
	doJSON("POST", "/auth/verify", map[string]any{"address": addr, "signature": sig}, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("verify: empty token")
	}
	return resp.Token
}

func protected(tok, addr string) {
	var resp struct {
		User struct{ Address string }
	}
	doAuth(tok, "GET", "/protected", nil, &resp, http.StatusOK)
	if resp.User.Address != addr {
		log.Fatalf("protected: got %q want %q", resp.User.Address, addr)
	}
}

// ----------------------------- blogs

func createBlog(tok, addr string) string {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("title", "integration-test "+uuid.NewString())
	_ = w.WriteField("content", "<p>end to end</p>")
	_ = w.WriteField("author", "integration")
	_ = w.WriteField("tags", "test,e2e")
	_ = w.WriteField("userAddress", addr)
	fw, _ := w.CreateFormFile("image", "pixel.png")
	_, _ = fw.Write(pixel)
	_ = w.Close()

	req, _ := http.NewRequest("POST", baseURL+"/blog/add-blog", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	var resp struct {
		ID string `json:"_id"`
	}
	send(req, &resp, http.StatusCreated)
	return resp.ID
}

func checkBlog(id string) {
	var blogs []struct {
		ID string `json:"_id"`
	}
	doJSON("GET", "/blog/all-blogs", nil, &blogs, http.StatusOK)
	for _, b := range blogs {
		if b.ID == id {
			return
		}
	}
	log.Fatal("blogs: created blog not listed")
}

func removeBlog(id string) {
	doJSON("DELETE", "/blog/remove-blog", map[string]any{"id": id}, nil, http.StatusOK)
	doJSON("GET", "/blog/"+id, nil, nil, http.StatusNotFound)
}

// ----------------------------- posts

func createPost(tok string) string {
	var resp struct {
		ID string `json:"_id"`
	}
	doAuth(tok, "POST", "/post/add-post", map[string]any{
		"campaignId":  "integration",
		"title":       "integration-test",
		"description": "posted by the e2e script",
	}, &resp, http.StatusCreated)
	return resp.ID
}

func comment(tok, postID string) string {
	var resp struct {
		ID string `json:"_id"`
	}
	doAuth(tok, "POST", "/post/add-comment", map[string]any{"postId": postID, "text": "first!"}, &resp, http.StatusCreated)
	return resp.ID
}

func like(tok, postID, addr string) {
	var resp struct{ Liked bool }
	doAuth(tok, "POST", "/post/toggle-like", map[string]any{"postId": postID, "userId": addr}, &resp, http.StatusOK)
	if !resp.Liked {
		log.Fatal("toggle-like: expected liked")
	}
}

func removeComment(postID, commentID string) {
	doJSON("DELETE", "/post/remove-comment", map[string]any{"postId": postID, "commentId": commentID}, nil, http.StatusOK)
}

func removePost(id string) {
	doJSON("DELETE", "/post/remove-post", map[string]any{"id": id}, nil, http.StatusOK)
}

// ----------------------------- ai

func askThanks() {
	var resp struct {
		Success bool
		Data    string
	}
	doJSON("POST", "/ai/ask", map[string]any{"question": "thanks"}, &resp, http.StatusOK)
	if !resp.Success || resp.Data == "" {
		log.Fatal("ai: empty canned reply")
	}
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	send(req, out, want)
}

func send(req *http.Request, out any, want int) {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", req.Method, req.URL.Path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", req.Method, req.URL.Path, err)
		}
	}
}
