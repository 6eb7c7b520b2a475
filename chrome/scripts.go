package chrome

import (
	"encoding/json"
	"fmt"

	"chatnav/dom"
	"chatnav/navigator"

	"golang.org/x/net/html"
)

// bindingName is the page function that forwards payloads to the host.
const bindingName = "chatnavEmit"

// installScript wires the page to the binding: a body observer reporting
// structural changes outside the overlay, and capture-phase listeners for
// overlay clicks, outside clicks and the dismiss key. Running it again
// replaces the previous observer and listeners. Attribute changes are not
// observed, so id stamps and highlights never look like page changes.
const installScript = `(() => {
  const overlayId = %[1]s;
  const dismissKey = %[2]s;
  const emit = (msg) => { try { window[%[3]s](JSON.stringify(msg)); } catch (e) {} };
  const isOverlay = (n) => n && n.nodeType === 1 && n.id === overlayId;
  const inOverlay = (n) => { for (; n; n = n.parentNode) { if (isOverlay(n)) return true; } return false; };
  const instance = () => { const o = document.getElementById(overlayId); return o ? (o.getAttribute(%[4]s) || '') : ''; };
  const ours = (r) => {
    if (inOverlay(r.target)) return true;
    if (r.type !== 'childList') return false;
    const nodes = [...r.addedNodes, ...r.removedNodes];
    return nodes.length > 0 && nodes.every(isOverlay);
  };
  const install = () => {
    if (window.__chatnavObserver) window.__chatnavObserver.disconnect();
    if (window.__chatnavClick) document.removeEventListener('click', window.__chatnavClick, true);
    if (window.__chatnavKey) document.removeEventListener('keydown', window.__chatnavKey, true);

    const observer = new MutationObserver((records) => {
      if (records.some((r) => !ours(r))) emit({type: 'change'});
    });
    observer.observe(document.body, {childList: true, subtree: true, characterData: true});
    window.__chatnavObserver = observer;

    window.__chatnavClick = (e) => {
      const t = e.target instanceof Element ? e.target : (e.target && e.target.parentElement);
      if (!t) return;
      if (!inOverlay(t)) { emit({type: 'outside', instance: instance()}); return; }
      const toggle = t.closest('[' + %[5]s + ']');
      if (toggle) {
        e.preventDefault();
        emit({type: 'toggle', panel: toggle.getAttribute(%[5]s), instance: instance()});
        return;
      }
      const row = t.closest('[' + %[6]s + ']');
      if (row) {
        e.preventDefault();
        emit({type: 'select', id: row.getAttribute(%[6]s), instance: instance()});
      }
    };
    document.addEventListener('click', window.__chatnavClick, true);

    window.__chatnavKey = (e) => {
      if (e.key === dismissKey) emit({type: 'key', key: e.key, instance: instance()});
    };
    document.addEventListener('keydown', window.__chatnavKey, true);
    return true;
  };
  if (document.body) return install();
  document.addEventListener('DOMContentLoaded', install, {once: true});
  return false;
})()`

// mountScript removes every existing overlay and builds the new one from a
// JSON node tree with createElement and createTextNode, so page text is never
// parsed as markup and Trusted Types pages accept it.
const mountScript = `((tree) => {
  const build = (n) => {
    if (typeof n === 'string') return document.createTextNode(n);
    const el = document.createElement(n.tag);
    for (const [k, v] of n.attrs || []) el.setAttribute(k, v);
    for (const c of n.children || []) el.appendChild(build(c));
    return el;
  };
  document.querySelectorAll('[id="' + %[1]s + '"]').forEach((n) => n.remove());
  if (!document.body) return false;
  document.body.appendChild(build(tree));
  return true;
})(%[2]s)`

// commitScript replays stamps and returns how many applied. It is the page
// side of dom.Page.Locate: tag, class and text fingerprint must match, and an
// element carrying another id is never restamped.
const commitScript = `((stamps) => {
  const marker = %[1]s;
  const overlayId = %[3]s;
  const fp = (n) => [...(n.textContent || '').replace(/\s+/g, ' ').trim()].slice(0, %[4]d).join('');
  const matches = (s, n) => !!n &&
    n.tagName.toLowerCase() === s.tag &&
    (n.getAttribute('class') || '') === (s.class || '') &&
    fp(n) === (s.text || '');
  const free = (s, n) => { const m = n.getAttribute(marker); return !m || m === s.id; };
  const locate = (s) => {
    let n = document.documentElement;
    for (const i of s.path || []) { n = n && n.children[i]; }
    if (matches(s, n) && free(s, n)) return n;
    if (!s.text) return null;
    for (const c of document.getElementsByTagName(s.tag)) {
      if (c.closest('[id="' + overlayId + '"]')) continue;
      if (free(s, c) && matches(s, c)) return c;
    }
    return null;
  };
  let applied = 0;
  for (const s of stamps) {
    const n = locate(s);
    if (!n) continue;
    if (s.setId && !n.id) n.id = s.id;
    n.setAttribute(marker, s.id);
    applied++;
  }
  return applied;
})(%[2]s)`

// resolveExpr finds an element by id, then by marker attribute.
const resolveExpr = `(document.getElementById(id) || document.querySelector('[' + %[1]s + '="' + CSS.escape(id) + '"]'))`

const scrollScript = `((id) => {
  const el = ` + resolveExpr + `;
  if (!el) return false;
  el.scrollIntoView({behavior: 'smooth', block: 'center'});
  return true;
})(%[2]s)`

const highlightScript = `((id, on) => {
  const el = ` + resolveExpr + `;
  if (!el) return false;
  if (on) {
    el.setAttribute(%[3]s, 'true');
    el.style.outline = '2px solid #f5a623';
    el.style.outlineOffset = '2px';
  } else {
    el.removeAttribute(%[3]s);
    el.style.outline = '';
    el.style.outlineOffset = '';
  }
  return true;
})(%[2]s, %[4]t)`

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func buildInstall(dismissKey string) string {
	return fmt.Sprintf(installScript,
		jsString(dom.OverlayID),
		jsString(dismissKey),
		jsString(bindingName),
		jsString(navigator.InstanceAttr),
		jsString(navigator.ToggleAttr),
		jsString(navigator.RowAttr),
	)
}

func buildMount(overlay *html.Node) (string, error) {
	tree, err := json.Marshal(encodeNode(overlay))
	if err != nil {
		return "", fmt.Errorf("encoding overlay: %w", err)
	}
	return fmt.Sprintf(mountScript, jsString(dom.OverlayID), tree), nil
}

func buildCommit(stamps []dom.Stamp) (string, error) {
	data, err := json.Marshal(stamps)
	if err != nil {
		return "", fmt.Errorf("encoding stamps: %w", err)
	}
	return fmt.Sprintf(commitScript, jsString(dom.MarkerAttr), data, jsString(dom.OverlayID), dom.FingerprintRunes), nil
}

func buildScroll(id string) string {
	return fmt.Sprintf(scrollScript, jsString(dom.MarkerAttr), jsString(id))
}

func buildHighlight(id string, on bool) string {
	return fmt.Sprintf(highlightScript, jsString(dom.MarkerAttr), jsString(id), jsString(dom.HighlightAttr), on)
}

// node is the JSON form of an element for mountScript.
type node struct {
	Tag      string      `json:"tag"`
	Attrs    [][2]string `json:"attrs,omitempty"`
	Children []any       `json:"children,omitempty"`
}

// encodeNode converts an element tree; text nodes become plain strings and
// comments are dropped.
func encodeNode(n *html.Node) any {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		out := node{Tag: n.Data}
		for _, a := range n.Attr {
			out.Attrs = append(out.Attrs, [2]string{a.Key, a.Val})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if enc := encodeNode(c); enc != nil {
				out.Children = append(out.Children, enc)
			}
		}
		return out
	}
	return nil
}
