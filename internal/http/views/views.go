// Package views renders pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/memberdesk/memberdesk/internal/auth"
	"github.com/memberdesk/memberdesk/internal/http/viewmodels"
)

// LoginPage renders the member-number login form.
func LoginPage(data viewmodels.LoginViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHead(w, "Login"); err != nil {
			return err
		}
		writeToast(w, data.Toast)
		fmt.Fprint(w, `<main class="login"><h1>Member Login</h1>`)
		if data.ErrorMessage != "" {
			fmt.Fprintf(w, `<p class="error" role="alert">%s</p>`, esc(data.ErrorMessage))
		}
		fmt.Fprint(w, `<form method="post" action="/login">`)
		writeHidden(w, "csrf", data.CSRFToken)
		if data.Next != "" {
			writeHidden(w, "next", data.Next)
		}
		fmt.Fprintf(w, `<label for="member_number">Member Number</label>`)
		fmt.Fprintf(w, `<input id="member_number" name="member_number" type="text" value="%s" autocomplete="username" required>`, esc(data.MemberNumber))
		fmt.Fprint(w, `<button type="submit">Login</button></form></main>`)
		return writeFoot(w)
	})
}

// DashboardPage renders the signed-in member's profile card.
func DashboardPage(data viewmodels.DashboardViewData) templ.Component {
	return layout(data.Layout, func(w io.Writer) error {
		if data.ProfileMissing || data.Profile == nil {
			fmt.Fprint(w, `<section class="profile"><p>Your profile has not been set up yet. Please contact an administrator.</p></section>`)
			return nil
		}
		p := data.Profile
		fmt.Fprint(w, `<section class="profile"><h2>Member Profile</h2><dl>`)
		writeField(w, "Member Number", p.MemberNumber)
		writeField(w, "Name", p.FullName)
		writeField(w, "Email", p.Email)
		writeField(w, "Address", p.Address)
		writeField(w, "Status", p.Status)
		writeField(w, "Collector", p.CollectorNumber)
		fmt.Fprint(w, `</dl>`)
		role := auth.ParseRole(p.Role)
		fmt.Fprintf(w, `<span class="badge badge-%s">%s</span>`, esc(roleBadgeClass(role)), esc(roleBadgeLabel(role)))
		fmt.Fprint(w, `</section>`)
		return nil
	})
}

// MembersPage renders the members list.
func MembersPage(data viewmodels.MembersViewData) templ.Component {
	return layout(data.Layout, func(w io.Writer) error {
		fmt.Fprint(w, `<section class="members"><h2>Members</h2>`)
		writeMemberTable(w, data.Members, true)
		fmt.Fprint(w, `</section>`)
		return nil
	})
}

// CollectorsPage renders the collectors list.
func CollectorsPage(data viewmodels.CollectorsViewData) templ.Component {
	return layout(data.Layout, func(w io.Writer) error {
		fmt.Fprint(w, `<section class="collectors"><h2>Collectors</h2>`)
		writeMemberTable(w, data.Collectors, false)
		fmt.Fprint(w, `</section>`)
		return nil
	})
}

// PasswordPage renders the change-password form, in normal or mandatory
// first-login mode.
func PasswordPage(data viewmodels.PasswordViewData) templ.Component {
	return layout(data.Layout, func(w io.Writer) error {
		title := "Change Password"
		if data.FirstTime {
			title = "Set New Password"
		}
		fmt.Fprintf(w, `<section class="password"><h2>%s</h2>`, esc(title))
		fmt.Fprint(w, `<p class="hint">Password must be at least 8 characters long.</p>`)
		if data.ErrorMessage != "" {
			fmt.Fprintf(w, `<p class="error" role="alert">%s</p>`, esc(data.ErrorMessage))
		}
		fmt.Fprint(w, `<form method="post" action="/password">`)
		writeHidden(w, "csrf", data.CSRFToken)
		if data.FirstTime {
			writeHidden(w, "first", "1")
		} else {
			writePasswordInput(w, "current_password", "Current Password", data.ErrorField)
		}
		writePasswordInput(w, "new_password", "New Password", data.ErrorField)
		writePasswordInput(w, "confirm_password", "Confirm Password", data.ErrorField)
		fmt.Fprint(w, `<button type="submit">Change Password</button></form></section>`)
		return nil
	})
}

// ForbiddenPage renders the access-denied page.
func ForbiddenPage(data viewmodels.LayoutData) templ.Component {
	return layout(data, func(w io.Writer) error {
		fmt.Fprint(w, `<section class="forbidden"><h2>Forbidden</h2><p>You do not have access to this section.</p></section>`)
		return nil
	})
}

func layout(data viewmodels.LayoutData, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHead(w, data.Title); err != nil {
			return err
		}
		writeToast(w, data.Toast)
		fmt.Fprint(w, `<header class="topbar"><span class="brand">memberdesk</span><nav>`)
		writeNavLink(w, "/", "Dashboard", data.ActivePath)
		if data.ShowUsers {
			writeNavLink(w, "/members", "Members", data.ActivePath)
		}
		if data.ShowCollectors {
			writeNavLink(w, "/collectors", "Collectors", data.ActivePath)
		}
		writeNavLink(w, "/password", "Password", data.ActivePath)
		fmt.Fprint(w, `</nav>`)
		fmt.Fprintf(w, `<form method="post" action="/logout">`)
		writeHidden(w, "csrf", data.CSRFToken)
		fmt.Fprintf(w, `<span class="who">%s</span><button type="submit">Sign out</button></form></header><main>`, esc(data.MemberNumber))
		if err := body(w); err != nil {
			return err
		}
		fmt.Fprint(w, `</main>`)
		return writeFoot(w)
	})
}

func writeMemberTable(w io.Writer, items []viewmodels.MemberItem, showLinked bool) {
	if len(items) == 0 {
		fmt.Fprint(w, `<p>No records.</p>`)
		return
	}
	fmt.Fprint(w, `<table><thead><tr><th>Number</th><th>Name</th><th>Email</th><th>Status</th>`)
	if showLinked {
		fmt.Fprint(w, `<th>Login</th>`)
	}
	fmt.Fprint(w, `</tr></thead><tbody>`)
	for _, m := range items {
		fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`, esc(m.MemberNumber), esc(m.FullName), esc(m.Email), esc(m.Status))
		if showLinked {
			linked := "no login"
			if m.Linked {
				linked = "linked"
			}
			fmt.Fprintf(w, `<td>%s</td>`, linked)
		}
		fmt.Fprint(w, `</tr>`)
	}
	fmt.Fprint(w, `</tbody></table>`)
}
