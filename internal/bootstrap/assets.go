package bootstrap

import (
	"strings"

	"github.com/GriffinCanCode/PageForge/backend/internal/shared/id"
)

// Placeholders substituted when the behavior script is rendered
const (
	channelPlaceholder = "__PF_CHANNEL__"
	originPlaceholder  = "__PF_ORIGIN__"
)

// renderScript binds the behavior script to one channel token and one
// posting origin.
func renderScript(channel id.ChannelToken, origin string) string {
	out := strings.ReplaceAll(behaviorScript, channelPlaceholder, channel.String())
	return strings.ReplaceAll(out, originPlaceholder, origin)
}

// selectionStyle highlights hover and selection states. It rides inside
// an injected style node, so it never survives export.
const selectionStyle = `
[data-pf-id] { cursor: default; }
body [data-pf-id]:hover { outline: 1px dashed rgba(74, 144, 217, 0.55); outline-offset: 1px; }
.pf-selected { outline: 2px solid #4a90d9 !important; outline-offset: 2px; }
.pf-selected[contenteditable] { cursor: text; }
img.pf-selected { cursor: pointer; }
`

// behaviorScript runs inside a browser render context and mirrors the
// in-process engine: click-to-select, inline editing, mutation watching,
// and the command surface. Messages carry the channel token minted at
// bootstrap; frames with a foreign token are ignored on both ends.
const behaviorScript = `
(function () {
  "use strict";

  var CHANNEL = "__PF_CHANNEL__";
  var ORIGIN = "__PF_ORIGIN__";
  var ID_ATTR = "data-pf-id";
  var WIRED_ATTR = "data-pf-wired";
  var SELECTED = "pf-selected";

  if (document.body.hasAttribute(WIRED_ATTR)) {
    return;
  }
  document.body.setAttribute(WIRED_ATTR, "true");

  var selected = null;
  var observer = null;

  function post(msg) {
    msg.channel = CHANNEL;
    var target = window.parent !== window ? window.parent : window;
    target.postMessage(JSON.stringify(msg), ORIGIN);
  }

  function serialize() {
    return "<!DOCTYPE html>" + document.documentElement.outerHTML;
  }

  function byId(elementId) {
    if (!elementId) {
      return null;
    }
    return document.querySelector("[" + ID_ATTR + "='" + elementId + "']");
  }

  function notifyContentChanged() {
    post({ type: "content-changed", markup: serialize() });
  }

  function clearSelection() {
    if (!selected) {
      return;
    }
    selected.classList.remove(SELECTED);
    if (selected.getAttribute("class") === "") {
      selected.removeAttribute("class");
    }
    if (selected.hasAttribute("contenteditable")) {
      selected.removeAttribute("contenteditable");
      selected.blur();
    }
    selected = null;
  }

  function select(el) {
    if (selected === el) {
      return;
    }
    clearSelection();
    selected = el;
    el.classList.add(SELECTED);

    var tag = el.tagName.toLowerCase();
    var props = {};
    if (tag === "img") {
      props.src = el.getAttribute("src") || "";
    } else {
      props.innerHTML = el.innerHTML;
      el.setAttribute("contenteditable", "true");
      el.focus();
    }

    post({
      type: "selection",
      element_id: el.getAttribute(ID_ATTR),
      tag: tag,
      props: props
    });
  }

  function onClick(event) {
    event.preventDefault();
    event.stopPropagation();
    select(event.currentTarget);
  }

  function onInput() {
    notifyContentChanged();
  }

  function wire() {
    var nodes = document.body.querySelectorAll("[" + ID_ATTR + "]");
    for (var i = 0; i < nodes.length; i++) {
      var el = nodes[i];
      if (el.hasAttribute(WIRED_ATTR)) {
        continue;
      }
      el.setAttribute(WIRED_ATTR, "true");
      el.addEventListener("click", onClick);
      el.addEventListener("input", onInput);
    }
  }

  function pauseObserver() {
    if (observer) {
      observer.disconnect();
    }
  }

  function resumeObserver() {
    if (observer) {
      observer.observe(document.body, {
        subtree: true,
        childList: true,
        attributes: true,
        characterData: true
      });
    }
  }

  function applyProps(el, props) {
    Object.keys(props).forEach(function (name) {
      var value = props[name];
      if (name === "innerHTML") {
        el.innerHTML = value;
      } else if (name === "src") {
        el.setAttribute("src", value);
      } else {
        el.style.setProperty(name, value);
      }
    });
  }

  function onCommand(msg) {
    switch (msg.type) {
      case "apply-props": {
        var el = byId(msg.element_id);
        if (!el) {
          return;
        }
        pauseObserver();
        applyProps(el, msg.props || {});
        wire();
        resumeObserver();
        post({ type: "props-applied", seq: msg.seq || 0, markup: serialize() });
        return;
      }
      case "clear-selection": {
        pauseObserver();
        clearSelection();
        resumeObserver();
        return;
      }
      case "click": {
        var target = byId(msg.element_id);
        if (!target) {
          return;
        }
        select(target);
        return;
      }
      case "input": {
        var node = byId(msg.element_id);
        if (!node) {
          return;
        }
        pauseObserver();
        node.textContent = msg.text || "";
        resumeObserver();
        notifyContentChanged();
        return;
      }
      default:
        return;
    }
  }

  window.addEventListener("message", function (event) {
    var msg = event.data;
    if (typeof msg === "string") {
      try {
        msg = JSON.parse(msg);
      } catch (err) {
        return;
      }
    }
    if (!msg || msg.channel !== CHANNEL) {
      return;
    }
    onCommand(msg);
  });

  function start() {
    wire();
    observer = new MutationObserver(function () {
      notifyContentChanged();
    });
    resumeObserver();
    post({ type: "iframe-ready" });
  }

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", start);
  } else {
    start();
  }
})();
`
