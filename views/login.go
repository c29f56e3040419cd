package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Login(email, destination string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w, `<form class="user-login-form" method="post" action="/user/login">`,
			`<input type="hidden" name="destination" value="`, esc(destination), `">`,
			`<div class="form-item"><label for="edit-email">Email</label>`,
			`<input type="email" id="edit-email" name="email" value="`, esc(email), `" required></div>`,
			`<div class="form-item"><label for="edit-pass">Password</label>`,
			`<input type="password" id="edit-pass" name="password" required></div>`,
			`<div class="form-actions"><button type="submit" class="button button--primary">Log in</button></div></form>`)
	})
}
